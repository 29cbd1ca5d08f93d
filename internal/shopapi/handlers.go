package shopapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MikeMC777/storefront/internal/catalog"
	"github.com/MikeMC777/storefront/internal/httpx"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

type Server struct {
	Shops  Repository
	Users  UserRepository
	Tokens *TokenIssuer
	Log    *zap.Logger
	// RequireAuth rejects GET /shops without a valid bearer token.
	RequireAuth bool
}

func (s *Server) Router() *gin.Engine {
	if s.Log == nil {
		s.Log = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(s.Log))
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/shops", s.authenticate(), s.listShops)
	r.POST("/auth/login", s.login)
	return r
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, catalog.ErrorResponse{IsSuccess: false, Message: msg})
}

// authenticate checks the bearer token when one is sent, and requires one
// when RequireAuth is set.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			if s.RequireAuth {
				fail(c, http.StatusUnauthorized, "Authorization token required")
				return
			}
			c.Next()
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			fail(c, http.StatusUnauthorized, "Invalid authorization header")
			return
		}
		claims, err := s.Tokens.Verify(token)
		if err != nil {
			fail(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		c.Set("user", claims)
		c.Next()
	}
}

func positiveInt(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func optionalDecimal(c *gin.Context, key string) (*decimal.Decimal, bool) {
	raw, ok := c.GetQuery(key)
	if !ok {
		return nil, true
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, false
	}
	return &d, true
}

func (s *Server) listShops(c *gin.Context) {
	limit, ok := positiveInt(c, "limit", defaultLimit)
	if !ok || limit > maxLimit {
		fail(c, http.StatusBadRequest, "limit must be between 1 and 100")
		return
	}
	page, ok := positiveInt(c, "page", 1)
	if !ok {
		fail(c, http.StatusBadRequest, "page must be a positive integer")
		return
	}
	price, ok := optionalDecimal(c, "price")
	if !ok {
		fail(c, http.StatusBadRequest, "price must be a number")
		return
	}
	stock, ok := optionalDecimal(c, "stock")
	if !ok {
		fail(c, http.StatusBadRequest, "stock must be a number")
		return
	}

	q := Query{
		ProductName: c.Query("productName"),
		MaxPrice:    price,
		MinStock:    stock,
		Limit:       limit,
		Page:        page,
	}
	shops, total, err := s.Shops.List(c.Request.Context(), q)
	if err != nil {
		s.Log.Error("list shops", zap.Error(err))
		fail(c, http.StatusInternalServerError, "failed to list shops")
		return
	}
	if total == 0 {
		fail(c, http.StatusNotFound, "No shops found")
		return
	}
	c.JSON(http.StatusOK, catalog.ListResponse{
		IsSuccess:  true,
		Message:    "Success",
		Data:       catalog.ListData{Shops: shops},
		Pagination: catalog.PageResult{Page: page, Limit: limit, TotalRow: total},
	})
}

// LoginRequest payload of POST /auth/login.
// swagger:model LoginRequest
type loginRequest struct {
	Email    string `json:"email"    example:"demo@shop.local"`
	Password string `json:"password" example:"demo1234"`
}

// LoginResponse carries the bearer token on success.
// swagger:model LoginResponse
type loginResponse struct {
	IsSuccess bool      `json:"isSuccess" example:"true"`
	Message   string    `json:"message"   example:"Login success"`
	Data      loginData `json:"data"`
}

type loginData struct {
	Token string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

func (s *Server) login(c *gin.Context) {
	var in loginRequest
	if err := c.ShouldBindJSON(&in); err != nil || in.Email == "" || in.Password == "" {
		fail(c, http.StatusBadRequest, "email and password are required")
		return
	}
	u, ok, err := Authenticate(c.Request.Context(), s.Users, in.Email, in.Password)
	if err != nil {
		s.Log.Error("authenticate", zap.Error(err))
		fail(c, http.StatusInternalServerError, "failed to authenticate")
		return
	}
	if !ok {
		fail(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	token, err := s.Tokens.Issue(u)
	if err != nil {
		s.Log.Error("issue token", zap.Error(err))
		fail(c, http.StatusInternalServerError, "failed to issue token")
		return
	}
	c.JSON(http.StatusOK, loginResponse{IsSuccess: true, Message: "Login success", Data: loginData{Token: token}})
}
