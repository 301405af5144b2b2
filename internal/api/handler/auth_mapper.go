package handler

import (
	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

// --- Request → Service input ---

func toRegisterInput(req registerRequest) ports.RegisterInput {
	return ports.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
}

func toLoginInput(req loginRequest) ports.LoginInput {
	return ports.LoginInput{
		Email:      req.Email,
		Password:   req.Password,
		DeviceInfo: req.DeviceInfo,
	}
}

// --- Service result → HTTP response ---

func toUserResponse(u *domain.User) userResponse {
	resp := userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt.UTC(),
	}
	if u.LastLogin != nil {
		t := u.LastLogin.UTC()
		resp.LastLogin = &t
	}
	return resp
}

func toAccountResponse(a domain.AccountInfo) accountResponse {
	caps := a.Capabilities
	if caps == nil {
		caps = []string{}
	}
	return accountResponse{
		Level:        a.Tier,
		Status:       a.Status,
		Capabilities: caps,
		MaxSites:     a.Tier.MaxSites(),
		MaxStorageMB: a.Tier.MaxStorageMB(),
	}
}

func toLoginResponse(r *ports.LoginResult) loginResponse {
	resp := loginResponse{
		AccessToken:  r.Tokens.AccessToken,
		RefreshToken: r.Tokens.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(r.Tokens.AccessExpiresIn.Seconds()),
		User:         toUserResponse(r.User),
		Account:      toAccountResponse(r.Account),
	}
	if r.Admin != nil {
		perms := r.Admin.Permissions
		if perms == nil {
			perms = []string{}
		}
		resp.Admin = &adminResponse{Role: r.Admin.Role, Permissions: perms}
	}
	return resp
}

func toMeResponse(c *domain.Claims) meResponse {
	caps := c.Capabilities
	if caps == nil {
		caps = []string{}
	}
	return meResponse{
		UserID:        c.Subject,
		Email:         c.Email,
		AccountLevel:  c.AccountTier,
		AccountStatus: c.AccountStatus,
		Capabilities:  caps,
		Role:          c.Role,
		IsAdmin:       c.IsAdmin,
		AdminRole:     c.AdminRole,
		ExpiresAt:     c.ExpiresAt.UTC(),
	}
}

// toKeyResponse includes the secret value only when reveal is set.
func toKeyResponse(k *domain.ValidationKey, reveal bool) keyResponse {
	resp := keyResponse{
		ID:        k.ID,
		UserID:    k.UserID,
		Purpose:   k.Purpose,
		ExpiresAt: k.ExpiresAt.UTC(),
	}
	if reveal {
		resp.Key = k.Value
	}
	return resp
}
