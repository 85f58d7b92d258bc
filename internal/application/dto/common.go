package dto

import "time"

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"` // filas que cumplen el filtro, sin paginar
}

// SuccessResponse respuesta mínima de una operación de escritura.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse cuerpo de error HTTP.
// LockedUntil solo aparece en PERIOD_LOCKED; Field en VALIDATION.
type ErrorResponse struct {
	Success     bool       `json:"success"`
	Code        string     `json:"code"`
	Message     string     `json:"message"`
	Field       string     `json:"field,omitempty"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
}
