package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/api/dto"
	"storefront/internal/form"
)

// AddressCountry 目前只支持巴西地址
const AddressCountry = "BR"

// focusAfterPrefill 自动填充后客户端应聚焦的字段
const focusAfterPrefill = "buildingNumber"

var addressTypes = []string{"APARTMENT", "HOUSE", "BUSINESS", "OTHER"}

type addressField struct {
	name  string
	get   func(r *dto.CreateAddressRequest) string
	rules []form.Rule
}

var addressFields = []addressField{
	{"zipCode", func(r *dto.CreateAddressRequest) string { return r.ZipCode }, []form.Rule{
		form.Required("CEP é obrigatório"),
		form.Pattern(`^\d{5}-\d{3}$`, "CEP inválido"),
	}},
	{"state", func(r *dto.CreateAddressRequest) string { return r.State }, []form.Rule{
		form.Required("Estado é obrigatório"),
	}},
	{"city", func(r *dto.CreateAddressRequest) string { return r.City }, []form.Rule{
		form.Required("Cidade é obrigatória"),
	}},
	{"neighbourhood", func(r *dto.CreateAddressRequest) string { return r.Neighbourhood }, []form.Rule{
		form.Required("Bairro é obrigatório"),
	}},
	{"street", func(r *dto.CreateAddressRequest) string { return r.Street }, []form.Rule{
		form.Required("Rua/Avenida é obrigatória"),
	}},
	{"type", func(r *dto.CreateAddressRequest) string { return r.Type }, []form.Rule{
		form.Required("Tipo de endereço é obrigatório"),
		form.Custom(func(v string, _ any) bool {
			for _, t := range addressTypes {
				if v == t {
					return true
				}
			}
			return false
		}, "Tipo de endereço inválido"),
	}},
}

// PostalLookuper 邮编查询
type PostalLookuper interface {
	Lookup(ctx context.Context, zipCode string) (*dto.PostalLookup, error)
}

// AddressRemote 远程地址接口
type AddressRemote interface {
	CreateAddress(ctx context.Context, token string, addr *dto.RemoteAddress) error
}

// AddressService 地址表单
type AddressService struct {
	postal PostalLookuper
	remote AddressRemote
}

func NewAddressService(postal PostalLookuper, remote AddressRemote) *AddressService {
	return &AddressService{postal: postal, remote: remote}
}

// ChangeZipCode 邮编输入：掩码，满 8 位时查询并返回自动填充
// 查询失败只记日志，不阻断输入
func (s *AddressService) ChangeZipCode(ctx context.Context, raw string) *dto.ZipCodeResponse {
	resp := &dto.ZipCodeResponse{
		ZipCode: form.MaskPostalCode(raw),
		Ready:   form.PostalCodeReady(raw),
	}
	if !resp.Ready {
		return resp
	}

	found, err := s.postal.Lookup(ctx, resp.ZipCode)
	if err != nil {
		zap.L().Warn("[Address] 邮编查询失败", zap.String("cep", resp.ZipCode), zap.Error(err))
		return resp
	}
	resp.Prefill = &dto.AddressPrefill{
		State:         found.State,
		City:          found.City,
		Neighbourhood: found.Neighborhood,
		Street:        found.Street,
	}
	resp.Focus = focusAfterPrefill
	return resp
}

// Validate 每个无效字段一条错误
func (s *AddressService) Validate(req *dto.CreateAddressRequest) error {
	errs := &form.ValidationErrors{}
	for _, f := range addressFields {
		if msgs := form.Evaluate(f.rules, f.get(req), req); len(msgs) > 0 {
			errs.Add(f.name, msgs[0])
		}
	}
	return errs.OrNil()
}

// Create 校验后提交到远程
func (s *AddressService) Create(ctx context.Context, token string, req *dto.CreateAddressRequest) error {
	req.ZipCode = form.MaskPostalCode(req.ZipCode)
	if err := s.Validate(req); err != nil {
		return err
	}
	return s.remote.CreateAddress(ctx, token, &dto.RemoteAddress{
		ZipCode:        req.ZipCode,
		State:          strings.TrimSpace(req.State),
		City:           strings.TrimSpace(req.City),
		Neighbourhood:  strings.TrimSpace(req.Neighbourhood),
		Street:         strings.TrimSpace(req.Street),
		BuildingNumber: strings.TrimSpace(req.BuildingNumber),
		Landmark:       strings.TrimSpace(req.Landmark),
		Type:           req.Type,
		Country:        AddressCountry,
	})
}
