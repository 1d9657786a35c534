package auth

import (
	"github.com/dmitrijs2005/escolario/internal/common"
	"github.com/samber/oops"
)

// User-visible texts.
const (
	MsgFillAllFields      = "Preencha todos os campos"
	MsgInvalidCredentials = "Credenciais inválidas"
	MsgEmailTaken         = "Email já cadastrado"
	MsgRegistered         = "Cadastro realizado!"
	MsgConflict           = "Erro: CPF ou email já cadastrado"
	MsgNameRequired       = "Digite seu nome completo"
	MsgInvalidEmail       = "Formato de email inválido"
	MsgInvalidCPF         = "CPF inválido"
	MsgPasswordTooShort   = "Senha deve ter no mínimo 6 caracteres"
	MsgPasswordTooLong    = "Senha deve ter no máximo 72 bytes"
	MsgLoginRequired      = "Faça login para continuar"
	MsgAdminOnly          = "Acesso restrito ao administrador"
	errorPrefix           = "Erro: "
)

// Message renders err for the user. Coded errors get their fixed text;
// anything else is shown as "Erro: <detail>".
func Message(err error) string {
	if err == nil {
		return ""
	}

	switch common.CodeOf(err) {
	case common.CodeAuthFailed:
		return MsgInvalidCredentials
	case common.CodeEmailAlreadyRegistered:
		return MsgEmailTaken
	case common.CodeConflict:
		return MsgConflict
	case common.CodeInvalidInput, common.CodeUnauthenticated, common.CodeForbidden:
		if msg := oops.GetPublic(err, ""); msg != "" {
			return msg
		}
	}
	return errorPrefix + err.Error()
}
