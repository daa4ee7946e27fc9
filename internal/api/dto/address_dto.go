package dto

// ==================== 请求 DTO ====================

// ZipCodeRequest 邮编输入
type ZipCodeRequest struct {
	ZipCode string `json:"zipCode"`
}

// CreateAddressRequest 新增地址
type CreateAddressRequest struct {
	ZipCode        string `json:"zipCode"`
	State          string `json:"state"`
	City           string `json:"city"`
	Neighbourhood  string `json:"neighbourhood"`
	Street         string `json:"street"`
	BuildingNumber string `json:"buildingNumber"`
	Landmark       string `json:"landmark"`
	Type           string `json:"type"`
}

// ==================== 响应 DTO ====================

// ZipCodeResponse 邮编掩码与自动填充
// Focus 非空时客户端应把焦点移到该字段
type ZipCodeResponse struct {
	ZipCode string          `json:"zipCode"`
	Ready   bool            `json:"ready"`
	Prefill *AddressPrefill `json:"prefill,omitempty"`
	Focus   string          `json:"focus,omitempty"`
}

// AddressPrefill 邮编查询得到的地址字段
type AddressPrefill struct {
	State         string `json:"state"`
	City          string `json:"city"`
	Neighbourhood string `json:"neighbourhood"`
	Street        string `json:"street"`
}

// ==================== 远程 API ====================

// RemoteAddress POST /address 请求体
type RemoteAddress struct {
	ZipCode        string `json:"zipCode"`
	State          string `json:"state"`
	City           string `json:"city"`
	Neighbourhood  string `json:"neighbourhood"`
	Street         string `json:"street"`
	BuildingNumber string `json:"buildingNumber"`
	Landmark       string `json:"landmark"`
	Type           string `json:"type"`
	Country        string `json:"country"`
}

// PostalLookup 邮编 API 响应
type PostalLookup struct {
	CEP          string `json:"cep"`
	State        string `json:"state"`
	City         string `json:"city"`
	Neighborhood string `json:"neighborhood"`
	Street       string `json:"street"`
}
