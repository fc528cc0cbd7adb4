// This is a **mock authentication service**, designed to provide JWT tokens
// for the ledger service, simulating caller authentication. The subject of
// the token is the ledger identity the caller claims; a real deployment
// verifies that claim before signing.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/earnlift/ledger/internal/ledger/auth"
)

const (
	defaultPort   = "8081"       // Default port for the authentication service
	defaultSecret = "jwt_secret" // Secret for signing JWT
)

// TokenResponse represents the response structure
type TokenResponse struct {
	Token string `json:"token"`
}

// tokenHandler generates a JWT for the requested identity and returns it in
// a JSON response.
func tokenHandler(w http.ResponseWriter, r *http.Request) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = defaultSecret
	}

	identity := r.URL.Query().Get("identity")
	if identity == "" {
		http.Error(w, "identity query parameter required", http.StatusBadRequest)
		return
	}

	token, err := auth.GenerateToken(identity, secret)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	resp := TokenResponse{Token: token}
	w.Header().Set("Content-Type", "application/json")
	err = json.NewEncoder(w).Encode(resp)
	if err != nil {
		http.Error(w, "Failed to encode token", http.StatusInternalServerError)
	}
}

func main() {
	port := os.Getenv("AUTH_PORT")
	if port == "" {
		port = defaultPort
	}
	http.HandleFunc("/token", tokenHandler)

	log.Printf("Authentication service running on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, nil))
}
