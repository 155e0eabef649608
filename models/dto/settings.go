package dto

// ServiceAccountUpload 上传服务账号 JSON (原文)
type ServiceAccountUpload struct {
	ServiceAccountJSON string `json:"serviceAccountJson" binding:"required"`
}

// ServiceAccount 服务账号 JSON 中需要校验的字段
type ServiceAccount struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}
