package model

// CartBinding 用户与远程购物车的绑定，每个用户最多一条
type CartBinding struct {
	BaseModel
	UserSubject string `gorm:"size:128;uniqueIndex;not null" json:"user_subject"`
	CartID      string `gorm:"size:64;not null" json:"cart_id"`
}

func (CartBinding) TableName() string { return "cart_bindings" }
