package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"storefront/internal/api/dto"
	"storefront/internal/wizard"
)

// ==================== 远程商城客户端 ====================

// ListingFile 随商品提交的图片文件
type ListingFile struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

// CommerceClient 远程商城 API
// 令牌只做转发，过期与刷新由外部身份提供方负责
type CommerceClient struct {
	client *resty.Client
}

// NewCommerceClient client 需已设置 BaseURL
func NewCommerceClient(client *resty.Client) *CommerceClient {
	return &CommerceClient{client: client}
}

// ListCategories GET /product-categories
func (c *CommerceClient) ListCategories(ctx context.Context) ([]wizard.Category, error) {
	var cats []wizard.Category
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"pageNumber": "1",
			"pageSize":   "100",
		}).
		SetResult(&cats).
		Get("/product-categories")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &RemoteError{Op: "list categories", Status: resp.StatusCode(), Body: resp.String()}
	}
	return cats, nil
}

// CreateListing POST /products，multipart 提交，成功为 204
// 文本字段按约定顺序写入，图片统一使用字段名 pictures
func (c *CommerceClient) CreateListing(ctx context.Context, token string, sub *wizard.Submission, files []ListingFile) error {
	fields := make([]*resty.MultipartField, 0, len(files)+8)
	for _, f := range sub.FormFields() {
		fields = append(fields, &resty.MultipartField{
			Param:  f.Name,
			Reader: strings.NewReader(f.Value),
		})
	}
	for _, f := range files {
		fields = append(fields, &resty.MultipartField{
			Param:       "pictures",
			FileName:    f.Name,
			ContentType: f.ContentType,
			Reader:      f.Reader,
		})
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetMultipartFields(fields...).
		Post("/products")
	if err != nil {
		return genericSubmitError(0, err)
	}
	if resp.StatusCode() == http.StatusNoContent {
		return nil
	}

	zap.L().Warn("[Commerce] 商品提交被拒绝",
		zap.Int("status", resp.StatusCode()),
		zap.String("body", resp.String()))

	if messages := remoteMessages(resp.Body()); len(messages) > 0 {
		return &SubmitError{Status: resp.StatusCode(), Messages: messages}
	}
	return genericSubmitError(resp.StatusCode(), nil)
}

// remoteMessages 解析结构化错误，缺少 message 的条目用通用提示代替
func remoteMessages(body []byte) []string {
	var payload dto.RemoteErrors
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	messages := make([]string, 0, len(payload.Errors))
	for _, e := range payload.Errors {
		if e.Message == "" {
			messages = append(messages, GenericSubmitMessage)
			continue
		}
		messages = append(messages, e.Message)
	}
	return messages
}

// CreateAddress POST /address，成功为 204
func (c *CommerceClient) CreateAddress(ctx context.Context, token string, addr *dto.RemoteAddress) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(addr).
		Post("/address")
	if err != nil {
		return fmt.Errorf("create address: %w", err)
	}
	if resp.StatusCode() != http.StatusNoContent {
		return &RemoteError{Op: "create address", Status: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}

// ==================== 购物车 ====================

// CreateCart POST /shopping-cart，返回新购物车 ID
func (c *CommerceClient) CreateCart(ctx context.Context, token string) (string, error) {
	var cart dto.ShoppingCart
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(map[string]interface{}{}).
		SetResult(&cart).
		Post("/shopping-cart")
	if err != nil {
		return "", fmt.Errorf("create cart: %w", err)
	}
	if resp.StatusCode() != http.StatusOK || cart.ID == "" {
		return "", &RemoteError{Op: "create cart", Status: resp.StatusCode(), Body: resp.String()}
	}
	return cart.ID, nil
}

// GetCart GET /shopping-cart/{id}
func (c *CommerceClient) GetCart(ctx context.Context, token, cartID string) (*dto.ShoppingCart, error) {
	var cart dto.ShoppingCart
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetPathParam("id", cartID).
		SetResult(&cart).
		Get("/shopping-cart/{id}")
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &RemoteError{Op: "get cart", Status: resp.StatusCode(), Body: resp.String()}
	}
	return &cart, nil
}

// AddProductToCart PUT /shopping-cart/{id}/add-product/{productId}，成功为 204
func (c *CommerceClient) AddProductToCart(ctx context.Context, token, cartID, productID string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetPathParams(map[string]string{
			"id":        cartID,
			"productId": productID,
		}).
		Put("/shopping-cart/{id}/add-product/{productId}")
	if err != nil {
		return fmt.Errorf("add product to cart: %w", err)
	}
	if resp.StatusCode() != http.StatusNoContent {
		return &RemoteError{Op: "add product to cart", Status: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}
