package httphandler

import "github.com/niksmo/home-catalog/internal/core/domain"

const (
	homeOKMessage     = "Productos para home obtenidos"
	productsOKMessage = "Productos obtenidos exitosamente"
	errorPrefix       = "Error: "
)

type (
	HomeResponse struct {
		Success bool               `json:"success"`
		Message string             `json:"message"`
		Data    domain.HomeCatalog `json:"data"`
	}

	ProductsResponse struct {
		Success    bool                   `json:"success"`
		Error      bool                   `json:"error"`
		Message    string                 `json:"message"`
		Data       []domain.ListedProduct `json:"data"`
		Pagination domain.Pagination      `json:"pagination"`
	}
)

// Failure envelopes never carry data.
type (
	FailureResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	ProductsFailureResponse struct {
		Success bool   `json:"success"`
		Error   bool   `json:"error"`
		Message string `json:"message"`
	}
)
