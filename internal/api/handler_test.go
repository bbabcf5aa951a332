package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ameedanxari/menumaker-sub002/internal/fault"
	"github.com/ameedanxari/menumaker-sub002/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"menu not found", fault.New(fault.CodeMenuNotFound, "gone"), http.StatusNotFound},
		{"dish not found", fault.New(fault.CodeDishNotFound, "gone"), http.StatusNotFound},
		{"order not found", fault.New(fault.CodeOrderNotFound, "gone"), http.StatusNotFound},
		{"settings missing is a tenant fault", fault.New(fault.CodeSettingsNotFound, "unconfigured"), http.StatusInternalServerError},
		{"invalid transition", fault.New(fault.CodeInvalidTransition, "no"), http.StatusConflict},
		{"terminal order", fault.New(fault.CodeOrderTerminal, "done"), http.StatusConflict},
		{"cart-correctable", fault.New(fault.CodeDishesUnavailable, "sold out"), http.StatusUnprocessableEntity},
		{"coupon rejected", fault.New(fault.CodeCouponRejected, "expired"), http.StatusUnprocessableEntity},
		{"uncoded system error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondError(c, tc.err)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestOrderBindingAcceptsZeroQuantity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// A zero quantity must pass request binding so it reaches dish
	// validation and comes back as a coded rejection, not a bare 400.
	body := `{
		"menu_id": 1,
		"items": [{"dish_id": 1, "quantity": 0}],
		"customer_name": "Ana",
		"customer_phone": "+15550001",
		"delivery_type": "pickup",
		"payment_method": "cash"
	}`

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var in service.OrderCreateInput
	err := c.ShouldBindJSON(&in)
	require.NoError(t, err)

	require.Len(t, in.Items, 1)
	assert.Equal(t, 0, in.Items[0].Quantity)
}
