package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/hackathon-range/shop-backend/internal/config"
	"github.com/hackathon-range/shop-backend/internal/middleware"
	"github.com/hackathon-range/shop-backend/internal/model"
	"github.com/hackathon-range/shop-backend/internal/repository"
	"github.com/hackathon-range/shop-backend/internal/utils"
)

func testConfig() config.Config { return config.Config{BcryptCost: 4, AdminUsername: "admin"} }

func newAuth(t *testing.T) (*AuthHandler, *memUsers) {
	t.Helper()
	users := newMemUsers()
	if _, err := users.Create(context.Background(), repository.NewUser{Username: "Hackors1", Password: "pw1", Role: model.RoleCustomer}, 4); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return NewAuthHandler(testConfig(), users, stubTokens{}), users
}

func TestRegisterCustomer(t *testing.T) {
	h, users := newAuth(t)
	c, rec := newCtx(http.MethodPost, "/api/users", `{"username":"eve","password":"secret","PII":"likes tea"}`, utils.Identity{})
	if err := h.Register(c); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	u, err := users.GetByUsername(context.Background(), "eve")
	if err != nil || u.Role != model.RoleCustomer {
		t.Fatalf("stored user = %+v, %v", u, err)
	}
	if u.PasswordHash == "secret" || !utils.VerifyPassword(u.PasswordHash, "secret") {
		t.Fatalf("password not hashed")
	}
}

func TestRegisterAdminRequiresAdminCaller(t *testing.T) {
	h, _ := newAuth(t)
	body := `{"username":"root2","password":"x","role":"admin"}`

	c, rec := newCtx(http.MethodPost, "/api/users", body, utils.Identity{})
	_ = h.Register(c)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("anonymous admin registration status = %d", rec.Code)
	}
	c, rec = newCtx(http.MethodPost, "/api/users", body, hackors1)
	_ = h.Register(c)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("customer admin registration status = %d", rec.Code)
	}
	c, rec = newCtx(http.MethodPost, "/api/users", body, adminID)
	_ = h.Register(c)
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin registration status = %d body=%s", rec.Code, rec.Body)
	}
}

func TestRegisterDuplicateAndMissingFields(t *testing.T) {
	h, _ := newAuth(t)
	c, rec := newCtx(http.MethodPost, "/api/users", `{"username":"Hackors1","password":"x"}`, utils.Identity{})
	_ = h.Register(c)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d", rec.Code)
	}
	c, rec = newCtx(http.MethodPost, "/api/users", `{"username":"  "}`, utils.Identity{})
	_ = h.Register(c)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing fields status = %d", rec.Code)
	}
}

func TestLoginSetsCookies(t *testing.T) {
	h, _ := newAuth(t)
	c, rec := newCtx(http.MethodPost, "/api/users/login", `{"username":"Hackors1","password":"pw1"}`, utils.Identity{})
	if err := h.Login(c); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	cookies := map[string]*http.Cookie{}
	for _, ck := range rec.Result().Cookies() {
		cookies[ck.Name] = ck
	}
	access, refresh := cookies[middleware.AccessCookie], cookies[middleware.RefreshCookie]
	if access == nil || access.Value != "access:Hackors1" || !access.HttpOnly || access.SameSite != http.SameSiteStrictMode {
		t.Fatalf("access cookie = %+v", access)
	}
	if access.MaxAge != 900 || access.Secure {
		t.Fatalf("access cookie maxAge/secure = %d/%v", access.MaxAge, access.Secure)
	}
	if refresh == nil || refresh.Path != RefreshPath || refresh.MaxAge != 12*3600 {
		t.Fatalf("refresh cookie = %+v", refresh)
	}
	var body struct {
		Message string      `json:"message"`
		User    sessionUser `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Message != "Login successful" || body.User.Username != "Hackors1" || body.User.Role != model.RoleCustomer {
		t.Fatalf("body = %+v", body)
	}
}

func TestLoginSecureCookieInProduction(t *testing.T) {
	h, _ := newAuth(t)
	h.Cfg.Env = "production"
	c, rec := newCtx(http.MethodPost, "/api/users/login", `{"username":"Hackors1","password":"pw1"}`, utils.Identity{})
	_ = h.Login(c)
	for _, ck := range rec.Result().Cookies() {
		if !ck.Secure {
			t.Fatalf("cookie %s not Secure in production", ck.Name)
		}
	}
}

func TestLoginRejectsBadCredentialsUniformly(t *testing.T) {
	h, _ := newAuth(t)
	for _, body := range []string{
		`{"username":"Hackors1","password":"wrong"}`,
		`{"username":"nobody","password":"pw1"}`,
	} {
		c, rec := newCtx(http.MethodPost, "/api/users/login", body, utils.Identity{})
		_ = h.Login(c)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status = %d", body, rec.Code)
		}
		if got := rec.Body.String(); got != "{\"error\":\"Invalid credentials\"}\n" {
			t.Fatalf("%s: body = %q", body, got)
		}
		if len(rec.Result().Cookies()) != 0 {
			t.Fatalf("%s: cookies set on failure", body)
		}
	}
}

func TestRefresh(t *testing.T) {
	h, _ := newAuth(t)

	c, rec := newCtx(http.MethodPost, RefreshPath, "", utils.Identity{})
	_ = h.Refresh(c)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token status = %d", rec.Code)
	}

	c, rec = newCtx(http.MethodPost, RefreshPath, `{"refreshToken":"garbage"}`, utils.Identity{})
	_ = h.Refresh(c)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("invalid token status = %d", rec.Code)
	}

	c, rec = newCtx(http.MethodPost, RefreshPath, "", utils.Identity{})
	c.Request().AddCookie(&http.Cookie{Name: middleware.RefreshCookie, Value: "refresh:Hackors1"})
	_ = h.Refresh(c)
	if rec.Code != http.StatusOK {
		t.Fatalf("cookie refresh status = %d", rec.Code)
	}
	cks := rec.Result().Cookies()
	if len(cks) != 1 || cks[0].Name != middleware.AccessCookie || cks[0].Value != "access:Hackors1" {
		t.Fatalf("cookies = %+v", cks)
	}
}

func TestLogoutClearsCookies(t *testing.T) {
	h, _ := newAuth(t)
	c, rec := newCtx(http.MethodPost, "/api/users/logout", "", hackors1)
	_ = h.Logout(c)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	cks := rec.Result().Cookies()
	if len(cks) != 2 {
		t.Fatalf("cookies = %+v", cks)
	}
	for _, ck := range cks {
		if ck.MaxAge >= 0 || ck.Value != "" {
			t.Fatalf("cookie %s not cleared: %+v", ck.Name, ck)
		}
	}
}

func TestUserUpdateRoleIsAdminOnly(t *testing.T) {
	users := newMemUsers(model.User{ID: 2, Username: "Hackors1", Role: model.RoleCustomer})
	h := NewUserHandler(testConfig(), users)

	c, rec := newCtx(http.MethodPut, "/api/users/Hackors1", `{"role":"admin"}`, hackors1)
	_ = h.Update(withParams(c, "username", "Hackors1"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("self role change status = %d", rec.Code)
	}

	c, rec = newCtx(http.MethodPut, "/api/users/Hackors1", `{"name":"H1","password":"new"}`, hackors1)
	_ = h.Update(withParams(c, "username", "Hackors1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("self update status = %d body=%s", rec.Code, rec.Body)
	}
	u, _ := users.GetByUsername(context.Background(), "Hackors1")
	if u.DisplayName() != "H1" || !utils.VerifyPassword(u.PasswordHash, "new") {
		t.Fatalf("user after update = %+v", u)
	}

	c, rec = newCtx(http.MethodPut, "/api/users/Hackors1", `{"role":"admin"}`, adminID)
	_ = h.Update(withParams(c, "username", "Hackors1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("admin role change status = %d", rec.Code)
	}
}

func TestUserGetMissing(t *testing.T) {
	h := NewUserHandler(testConfig(), newMemUsers())
	c, rec := newCtx(http.MethodGet, "/api/users/ghost", "", adminID)
	_ = h.Get(withParams(c, "username", "ghost"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}
