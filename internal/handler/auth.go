package handler

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"cafehub/internal/model"
	"cafehub/internal/service"
)

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func LoginHandler(authSvc *service.AuthService, secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}

		cashier, err := authSvc.Authenticate(r.Context(), req.Login, req.Password)
		if err != nil {
			writeError(w, err)
			return
		}

		token, err := issueToken(secret, cashier.ID, cashier.DisplayName, cashier.Role)
		if err != nil {
			writeError(w, err)
			return
		}

		writeData(w, http.StatusOK, map[string]interface{}{
			"token":   token,
			"cashier": cashier,
		})
	}
}

type registerRequest struct {
	Login       string     `json:"login"`
	Password    string     `json:"password"`
	DisplayName string     `json:"display_name"`
	Role        model.Role `json:"role"`
}

// RegisterCashierHandler lets an admin create cashier and admin accounts.
func RegisterCashierHandler(authSvc *service.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if req.Role == "" {
			req.Role = model.RoleCashier
		}

		cashier, err := authSvc.Register(r.Context(), req.Login, req.Password, req.DisplayName, req.Role)
		if err != nil {
			writeError(w, err)
			return
		}

		writeData(w, http.StatusCreated, cashier)
	}
}

type otpRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

func OTPSendHandler(otp service.OTPProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req otpRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}

		if err := otp.Send(r.Context(), req.Phone); err != nil {
			writeError(w, err)
			return
		}

		writeData(w, http.StatusOK, map[string]string{"status": "sent"})
	}
}

// OTPVerifyHandler exchanges a valid code for a customer session token.
func OTPVerifyHandler(otp service.OTPProvider, secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req otpRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}

		if err := otp.Verify(r.Context(), req.Phone, req.Code); err != nil {
			writeError(w, err)
			return
		}

		token, err := issueToken(secret, req.Phone, req.Phone, model.RoleCustomer)
		if err != nil {
			writeError(w, err)
			return
		}

		writeData(w, http.StatusOK, map[string]string{"token": token})
	}
}

func issueToken(secret, userID, name string, role model.Role) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"name":    name,
		"role":    string(role),
		"exp":     jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	return token.SignedString([]byte(secret))
}
