package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"storefront/internal/api/dto"
	"storefront/internal/form"
	"storefront/pkg/utils"
)

// PostalService 邮编查询，结果按数字邮编缓存
// 同一邮编的并发查询合并为一次远程请求
type PostalService struct {
	client *resty.Client
	cache  *utils.TTLCache
	group  singleflight.Group
}

// NewPostalService client 需已设置 BaseURL；cache 可为 nil
func NewPostalService(client *resty.Client, cache *utils.TTLCache) *PostalService {
	return &PostalService{client: client, cache: cache}
}

// Lookup 只接受恰好 8 位数字（允许带分隔符）
func (s *PostalService) Lookup(ctx context.Context, zipCode string) (*dto.PostalLookup, error) {
	digits := form.OnlyDigits(zipCode)
	if len(digits) != form.PostalCodeDigits {
		return nil, ErrInvalidPostalCode
	}

	if s.cache != nil {
		if raw, ok := s.cache.Get(digits); ok {
			var cached dto.PostalLookup
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	v, err, _ := s.group.Do(digits, func() (interface{}, error) {
		return s.fetch(ctx, digits)
	})
	if err != nil {
		return nil, err
	}
	found := *v.(*dto.PostalLookup)
	return &found, nil
}

func (s *PostalService) fetch(ctx context.Context, digits string) (*dto.PostalLookup, error) {
	var result dto.PostalLookup
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParam("cep", digits).
		SetResult(&result).
		Get("/api/cep/v2/{cep}")
	if err != nil {
		return nil, fmt.Errorf("postal lookup: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusBadRequest:
		return nil, ErrPostalCodeNotFound
	default:
		return nil, &RemoteError{Op: "postal lookup", Status: resp.StatusCode(), Body: resp.String()}
	}

	if s.cache != nil {
		if raw, err := json.Marshal(result); err == nil {
			s.cache.Set(digits, raw)
		}
	}
	zap.L().Debug("[Postal] 邮编查询完成", zap.String("cep", digits))
	return &result, nil
}
