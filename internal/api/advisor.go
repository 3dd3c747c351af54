package api

import (
	"net/http" // HTTP status codes

	"catia_backend/internal/advisor" // Advisor gateway

	"github.com/gin-gonic/gin" // Gin web framework
)

// providerErrorMessage is the body the SPA checks for when CatIA is down
const providerErrorMessage = "Error al obtener la respuesta de la API"

// CatiaRequest is the body of POST /catia
type CatiaRequest struct {
	UserData any `json:"datos_del_usuario"` // Arbitrary user data, serialized into the prompt verbatim
}

// CatiaConsejoRequest is the body of POST /catiaConsejo
type CatiaConsejoRequest struct {
	Name string `json:"nombre_usuario"` // Caller's display name
	City string `json:"ciudad"`         // Caller's city
}

// CatiaHandler returns CatIA's opinion on the caller's financial data
func CatiaHandler(client *advisor.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CatiaRequest         // Bind JSON request to struct
		_ = c.ShouldBindJSON(&req)   // Missing fields degrade to null, as in the original API
		prompt := advisor.OpinionPrompt(req.UserData) // Build the full-context prompt
		// One synchronous provider call, bounded by the request context
		text, err := client.Chat(c.Request.Context(), prompt)
		if err != nil {
			// Uniform provider error, no internals leaked
			c.JSON(http.StatusBadGateway, gin.H{"error": providerErrorMessage})
			return
		}
		c.JSON(http.StatusOK, gin.H{"response": text}) // The generated text is the whole payload
	}
}

// CatiaConsejoHandler returns a standalone financial tip personalized
// only by name and city. Publicly reachable, no financial data involved.
func CatiaConsejoHandler(client *advisor.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CatiaConsejoRequest // Bind JSON request to struct
		_ = c.ShouldBindJSON(&req)  // Missing fields degrade to empty strings, as in the original API
		prompt := advisor.AdvicePrompt(req.Name, req.City) // Build the advice prompt
		// One synchronous provider call, bounded by the request context
		text, err := client.Chat(c.Request.Context(), prompt)
		if err != nil {
			// Uniform provider error, no internals leaked
			c.JSON(http.StatusBadGateway, gin.H{"error": providerErrorMessage})
			return
		}
		c.JSON(http.StatusOK, gin.H{"response": text}) // The generated text is the whole payload
	}
}
