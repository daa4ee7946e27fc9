package dto

// ShoppingCart 远程购物车
type ShoppingCart struct {
	ID       string        `json:"id"`
	Products []CartProduct `json:"products"`
}

// CartProduct 购物车商品
type CartProduct struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	PriceInCents int64  `json:"priceInCents"`
	Amount       int    `json:"amount"`
	PictureURL   string `json:"pictureUrl"`
}

// ==================== 远程错误 ====================

// RemoteErrors 远程 API 的结构化错误 {"errors":[{"message":"..."}]}
type RemoteErrors struct {
	Errors []RemoteError `json:"errors"`
}

type RemoteError struct {
	Message string `json:"message"`
}
