package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"storefront/internal/api/dto"
	"storefront/internal/model"
)

// CartRemote 远程购物车接口
type CartRemote interface {
	CreateCart(ctx context.Context, token string) (string, error)
	GetCart(ctx context.Context, token, cartID string) (*dto.ShoppingCart, error)
	AddProductToCart(ctx context.Context, token, cartID, productID string) error
}

// CartBindings 用户与远程购物车的绑定
type CartBindings interface {
	GetByUser(ctx context.Context, subject string) (*model.CartBinding, error)
	Bind(ctx context.Context, subject, cartID string) error
	Unbind(ctx context.Context, subject string) error
	UnbindIfCurrent(ctx context.Context, subject, cartID string) (bool, error)
}

// refreshCall 一次在途刷新
type refreshCall struct {
	cancel     context.CancelFunc
	superseded atomic.Bool
}

// CartService 购物车同步
// 同一用户的刷新以最后一次为准，之前的在途请求被取消
type CartService struct {
	remote   CartRemote
	bindings CartBindings

	mu       sync.Mutex
	inflight map[string]*refreshCall
}

func NewCartService(remote CartRemote, bindings CartBindings) *CartService {
	return &CartService{
		remote:   remote,
		bindings: bindings,
		inflight: make(map[string]*refreshCall),
	}
}

// Ensure 没有绑定时创建远程购物车并绑定，返回购物车 ID
func (s *CartService) Ensure(ctx context.Context, subject, token string) (string, error) {
	b, err := s.bindings.GetByUser(ctx, subject)
	if err != nil {
		return "", err
	}
	if b != nil {
		return b.CartID, nil
	}
	return s.create(ctx, subject, token)
}

func (s *CartService) create(ctx context.Context, subject, token string) (string, error) {
	cartID, err := s.remote.CreateCart(ctx, token)
	if err != nil {
		return "", err
	}
	if err := s.bindings.Bind(ctx, subject, cartID); err != nil {
		return "", err
	}
	zap.L().Info("[Cart] 已绑定新购物车", zap.String("subject", subject), zap.String("cart_id", cartID))
	return cartID, nil
}

// Refresh 拉取当前绑定的购物车
// 被更新的刷新取代时返回 ErrRefreshSuperseded；远程失败时解除绑定
func (s *CartService) Refresh(ctx context.Context, subject, token string) (*dto.ShoppingCart, error) {
	b, err := s.bindings.GetByUser(ctx, subject)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrCartNotBound
	}

	callCtx, call := s.begin(ctx, subject)
	defer s.end(subject, call)

	cart, err := s.remote.GetCart(callCtx, token, b.CartID)
	if call.superseded.Load() {
		return nil, ErrRefreshSuperseded
	}
	if err != nil {
		// 调用方自己断开时保留绑定
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if _, uerr := s.bindings.UnbindIfCurrent(context.WithoutCancel(ctx), subject, b.CartID); uerr != nil {
			zap.L().Error("[Cart] 解除绑定失败", zap.String("subject", subject), zap.Error(uerr))
		}
		zap.L().Warn("[Cart] 刷新失败，已解除绑定",
			zap.String("subject", subject),
			zap.String("cart_id", b.CartID),
			zap.Error(err))
		return nil, err
	}
	return cart, nil
}

// begin 登记新的刷新并取消同一用户之前的刷新
func (s *CartService) begin(ctx context.Context, subject string) (context.Context, *refreshCall) {
	callCtx, cancel := context.WithCancel(ctx)
	call := &refreshCall{cancel: cancel}

	s.mu.Lock()
	if prev, ok := s.inflight[subject]; ok {
		prev.superseded.Store(true)
		prev.cancel()
	}
	s.inflight[subject] = call
	s.mu.Unlock()
	return callCtx, call
}

func (s *CartService) end(subject string, call *refreshCall) {
	s.mu.Lock()
	if s.inflight[subject] == call {
		delete(s.inflight, subject)
	}
	s.mu.Unlock()
	call.cancel()
}

// AddProduct 加入商品后刷新
func (s *CartService) AddProduct(ctx context.Context, subject, token, productID string) (*dto.ShoppingCart, error) {
	b, err := s.bindings.GetByUser(ctx, subject)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrCartNotBound
	}
	if err := s.remote.AddProductToCart(ctx, token, b.CartID, productID); err != nil {
		return nil, err
	}
	return s.Refresh(ctx, subject, token)
}

// Reset 放弃当前购物车并创建新的
func (s *CartService) Reset(ctx context.Context, subject, token string) (string, error) {
	if err := s.bindings.Unbind(ctx, subject); err != nil {
		return "", err
	}
	return s.create(ctx, subject, token)
}

// IsSuperseded 判断错误是否因被新的刷新取代
func IsSuperseded(err error) bool {
	return errors.Is(err, ErrRefreshSuperseded)
}
