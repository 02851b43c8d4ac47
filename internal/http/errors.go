package http

import (
	"errors"
	"net/http"

	"painel/internal/core"
)

// Toast messages shown to the user.
const (
	msgCompanyCreated = "Empresa cadastrada"
	msgCompanyUpdated = "Empresa atualizada"
	msgCompanyDeleted = "Empresa excluída"

	msgRecordCreated = "Dados financeiros criados com sucesso."
	msgRecordUpdated = "Dados financeiros atualizados com sucesso."
	msgRecordDeleted = "Dados financeiros excluídos com sucesso."
	msgRecordFailed  = "Erro ao processar dados financeiros."

	msgLoadCompanies = "Erro ao carregar empresas do banco de dados."
	msgLoadRecords   = "Erro ao carregar dados financeiros da empresa."

	msgBadRequest      = "Requisição inválida"
	msgNotFound        = "Registro não encontrado"
	msgDuplicate       = "Já existem dados para este trimestre."
	msgCompanyNotFound = "Empresa não encontrada"
)

// statusFor maps a service error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case isValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrDuplicateQuarter):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// failure builds the response for err. Validation messages are shown as
// they are; anything unexpected gets the generic fallback.
func failure(err error, fallback string) *HTMXResponseBuilder {
	status := statusFor(err)
	switch status {
	case http.StatusUnprocessableEntity:
		return ErrorResponse(status, "Dados inválidos: "+err.Error())
	case http.StatusNotFound:
		return ErrorResponse(status, msgNotFound)
	case http.StatusConflict:
		return ErrorResponse(status, msgDuplicate)
	}
	return ErrorResponse(status, fallback)
}
