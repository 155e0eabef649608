package vo

type TokenPair struct {
	AccessToken  string `json:"access_token"`  // 会话令牌
	RefreshToken string `json:"refresh_token"` // 刷新令牌
}

// SessionUser 令牌交换后返回给客户端的本地用户信息
type SessionUser struct {
	ID          uint   `json:"id"`
	DocumentID  string `json:"documentId"`
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Role        string `json:"role"`
	Confirmed   bool   `json:"confirmed"`
	FirebaseUID string `json:"firebaseUID"`
}

// ExchangeResponse 令牌交换结果
type ExchangeResponse struct {
	User  SessionUser `json:"user"`
	Token TokenPair   `json:"token"`
}

// Empty 用于表示成功但无数据返回
type Empty struct{}
