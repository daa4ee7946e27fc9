package wizard

import "errors"

var (
	ErrUnknownField      = errors.New("campo desconhecido")
	ErrFieldNotOnStep    = errors.New("campo não pertence ao passo atual")
	ErrSelectionOnly     = errors.New("campo definido por seleção")
	ErrInvalidChoice     = errors.New("opção inválida")
	ErrUnknownGroup      = errors.New("grupo de revisão desconhecido")
	ErrNotOnReview       = errors.New("ação disponível apenas na revisão")
	ErrSubmissionPending = errors.New("anúncio já está sendo enviado")
	ErrPictureNotFound   = errors.New("foto não encontrada")
)
