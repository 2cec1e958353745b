package dto

import (
	"net/http"
	"strings"

	"github.com/iho/gofinance/internal/domain"
	"github.com/iho/gofinance/internal/usecase"
)

// TradeForm is the body of POST /buy and POST /sell.
type TradeForm struct {
	Symbol string `form:"symbol" validate:"required,ticker"`
	Shares string `form:"shares" validate:"required"`
}

// TradeFormFromRequest reads a trade form.
func TradeFormFromRequest(r *http.Request) TradeForm {
	return TradeForm{
		Symbol: strings.TrimSpace(r.FormValue("symbol")),
		Shares: strings.TrimSpace(r.FormValue("shares")),
	}
}

// ToUseCaseInput validates the form and converts it for userID.
func (f TradeForm) ToUseCaseInput(userID string) (usecase.TradeInput, error) {
	if err := Validate(f); err != nil {
		return usecase.TradeInput{}, err
	}

	shares, err := domain.ParseShares(f.Shares)
	if err != nil {
		return usecase.TradeInput{}, err
	}

	return usecase.TradeInput{
		UserID: userID,
		Symbol: domain.NormalizeSymbol(f.Symbol),
		Shares: shares,
	}, nil
}

// QuoteForm is the body of POST /quote.
type QuoteForm struct {
	Symbol string `form:"symbol" validate:"required,ticker"`
}

// QuoteFormFromRequest reads a quote form.
func QuoteFormFromRequest(r *http.Request) QuoteForm {
	return QuoteForm{Symbol: strings.TrimSpace(r.FormValue("symbol"))}
}

// RegisterForm is the body of POST /register.
type RegisterForm struct {
	Username     string `form:"username"     validate:"required,max=64,username"`
	Password     string `form:"password"     validate:"required,max=72"`
	Confirmation string `form:"confirmation" validate:"required,eqfield=Password"`
}

// RegisterFormFromRequest reads a registration form.
func RegisterFormFromRequest(r *http.Request) RegisterForm {
	return RegisterForm{
		Username:     strings.TrimSpace(r.FormValue("username")),
		Password:     r.FormValue("password"),
		Confirmation: r.FormValue("confirmation"),
	}
}

// ToUseCaseInput validates the form.
func (f RegisterForm) ToUseCaseInput() (usecase.RegisterInput, error) {
	if err := Validate(f); err != nil {
		return usecase.RegisterInput{}, err
	}

	return usecase.RegisterInput{
		Username:     f.Username,
		Password:     f.Password,
		Confirmation: f.Confirmation,
	}, nil
}

// LoginForm is the body of POST /login.
type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// LoginFormFromRequest reads a login form.
func LoginFormFromRequest(r *http.Request) LoginForm {
	return LoginForm{
		Username: strings.TrimSpace(r.FormValue("username")),
		Password: r.FormValue("password"),
	}
}

// ChangePasswordForm is the body of POST /change_password.
type ChangePasswordForm struct {
	Current      string `form:"current"      validate:"required"`
	Password     string `form:"password"     validate:"required,max=72"`
	Confirmation string `form:"confirmation" validate:"required,eqfield=Password"`
}

// ChangePasswordFormFromRequest reads a change-password form.
func ChangePasswordFormFromRequest(r *http.Request) ChangePasswordForm {
	return ChangePasswordForm{
		Current:      r.FormValue("current"),
		Password:     r.FormValue("password"),
		Confirmation: r.FormValue("confirmation"),
	}
}

// ToUseCaseInput validates the form and converts it for userID.
func (f ChangePasswordForm) ToUseCaseInput(userID string) (usecase.ChangePasswordInput, error) {
	if err := Validate(f); err != nil {
		return usecase.ChangePasswordInput{}, err
	}

	return usecase.ChangePasswordInput{
		UserID:          userID,
		CurrentPassword: f.Current,
		NewPassword:     f.Password,
		Confirmation:    f.Confirmation,
	}, nil
}
