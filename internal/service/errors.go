package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrWizardNotFound     = errors.New("assistente de anúncio não encontrado")
	ErrForbidden          = errors.New("sem permissão para este assistente")
	ErrWizardClosed       = errors.New("assistente de anúncio já encerrado")
	ErrTooManyPictures    = errors.New("limite de fotos atingido")
	ErrCartNotBound       = errors.New("nenhum carrinho associado")
	ErrRefreshSuperseded  = errors.New("atualização do carrinho substituída por outra mais recente")
	ErrInvalidPostalCode  = errors.New("CEP inválido")
	ErrPostalCodeNotFound = errors.New("CEP não encontrado")
)

// GenericSubmitMessage 提交失败且远程没有给出具体原因时的提示
const GenericSubmitMessage = "Erro ao anunciar produto!"

// SuccessSubmitMessage 提交成功提示
const SuccessSubmitMessage = "Produto anunciado com sucesso!"

// SubmitError 商品提交失败
// Messages 为远程返回的逐条错误，没有时只有一条通用提示
type SubmitError struct {
	Status   int
	Messages []string
	Cause    error
}

func (e *SubmitError) Error() string {
	return "submit listing: " + strings.Join(e.Messages, "; ")
}

func (e *SubmitError) Unwrap() error { return e.Cause }

func genericSubmitError(status int, cause error) *SubmitError {
	return &SubmitError{Status: status, Messages: []string{GenericSubmitMessage}, Cause: cause}
}

// RemoteError 远程 API 返回非预期状态
type RemoteError struct {
	Op     string
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.Status, e.Body)
}
