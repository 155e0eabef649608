package enums

// DeleteDestination 删除的目标端；空值表示两端都删
type DeleteDestination string

const (
	DestinationBoth     DeleteDestination = ""
	DestinationProvider DeleteDestination = "provider"
	DestinationLocal    DeleteDestination = "local"
)

// Valid 判断取值是否合法
func (d DeleteDestination) Valid() bool {
	return d == DestinationBoth || d == DestinationProvider || d == DestinationLocal
}

// SideStatus 单端操作结果
type SideStatus string

const (
	SideFulfilled SideStatus = "fulfilled"
	SideRejected  SideStatus = "rejected"
	SideSkipped   SideStatus = "skipped"
)

// SortDirection 排序方向
type SortDirection string

const (
	SortASC  SortDirection = "ASC"
	SortDESC SortDirection = "DESC"
)
