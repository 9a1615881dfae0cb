package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Sucursales-api/internal/application/auth"
	"github.com/jhoicas/Sucursales-api/internal/application/catalog"
	"github.com/jhoicas/Sucursales-api/internal/application/documents"
	"github.com/jhoicas/Sucursales-api/internal/application/dto"
	"github.com/jhoicas/Sucursales-api/internal/application/inventory"
	"github.com/jhoicas/Sucursales-api/internal/application/ledger"
	"github.com/jhoicas/Sucursales-api/internal/application/transfer"
	apphttp "github.com/jhoicas/Sucursales-api/internal/interfaces/http"
	"github.com/jhoicas/Sucursales-api/internal/testsupport"
)

const (
	originBranch = "00000000-0000-0000-0000-0000000000e1"
	destBranch   = "00000000-0000-0000-0000-0000000000e2"
	productID    = "00000000-0000-0000-0000-0000000000e3"
)

// newTestAPI levanta la API completa sobre los repositorios en memoria.
func newTestAPI(t *testing.T) *fiber.App {
	t.Helper()
	store := testsupport.NewStore()
	store.SeedBranch(originBranch, "Sucursal Centro")
	store.SeedBranch(destBranch, "Sucursal Norte")
	store.SeedProduct(productID, "SKU-001", "Fideos 500g")
	store.SeedPosition(productID, originBranch, 100, 0)

	runner := testsupport.NewTxRunner(store)
	ledgerSvc := ledger.NewService(runner, store.ProductRepo(), store.BranchRepo(), store.StockRepo(), store.MovementRepo())
	engine := transfer.NewEngine(runner, ledgerSvc, store.TransferRepo(), store.BranchRepo(), store.ProductRepo(), store.StockRepo())
	documentsSvc := documents.NewService(runner, ledgerSvc)
	stockUC := inventory.NewStockQueryUseCase(store.StockRepo(), store.BranchRepo())
	authUC := auth.NewUseCase(store.UserRepo(), store.BranchRepo(), auth.JWTConfig{
		Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer,
	})

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		LedgerSvc:    ledgerSvc,
		TransferEng:  engine,
		DocumentsSvc: documentsSvc,
		StockUC:      stockUC,
		BranchUC:     catalog.NewBranchUseCase(store.BranchRepo()),
		ProductUC:    catalog.NewProductUseCase(store.ProductRepo()),
		AuthUC:       authUC,
		JWTSecret:    testJWTSecret,
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeTransfer(t *testing.T, resp *http.Response) dto.TransferResponse {
	t.Helper()
	defer resp.Body.Close()
	var out dto.TransferResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestTransfersAPI_CicloCompleto(t *testing.T) {
	app := newTestAPI(t)
	admin := tokenForRole(t, "admin")

	// Crear.
	resp := doJSON(t, app, http.MethodPost, "/api/transfers", admin, dto.CreateTransferRequest{
		OriginID:      originBranch,
		DestinationID: destBranch,
		Lines:         []dto.CreateTransferLineRequest{{ProductID: productID, Quantity: 20}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeTransfer(t, resp)
	assert.Equal(t, "REQUESTED", created.Status)
	require.Len(t, created.Lines, 1)

	// Aprobar y despachar.
	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/transfers/%s/approve", created.ID), admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "APPROVED", decodeTransfer(t, resp).Status)

	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/transfers/%s/dispatch", created.ID), admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "IN_TRANSIT", decodeTransfer(t, resp).Status)

	// Cancelar después del despacho: 409 INVALID_TRANSITION.
	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/transfers/%s/cancel", created.ID), admin,
		dto.CancelTransferRequest{Reason: "tarde"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var errBody dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errBody))
	resp.Body.Close()
	assert.Equal(t, "INVALID_TRANSITION", errBody.Code)

	// Recibir la línea completa: COMPLETED.
	resp = doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/transfers/%s/lines/%s/receive", created.ID, created.Lines[0].ID), admin,
		dto.ReceiveLineRequest{ReceivedQty: 20})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "COMPLETED", decodeTransfer(t, resp).Status)

	// El destino quedó acreditado.
	resp = doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/api/ledger/stock/%s/%s", destBranch, productID), admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var position dto.StockPositionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&position))
	resp.Body.Close()
	assert.Equal(t, int64(20), position.Quantity)
}

func TestTransfersAPI_SinCoberturaDevuelve409(t *testing.T) {
	app := newTestAPI(t)
	admin := tokenForRole(t, "admin")

	resp := doJSON(t, app, http.MethodPost, "/api/transfers", admin, dto.CreateTransferRequest{
		OriginID:      originBranch,
		DestinationID: destBranch,
		Lines:         []dto.CreateTransferLineRequest{{ProductID: productID, Quantity: 500}},
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var errBody dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errBody))
	assert.Equal(t, "INSUFFICIENT_STOCK", errBody.Code)
}

func TestTransfersAPI_VendedorNoPuedeAprobar(t *testing.T) {
	app := newTestAPI(t)
	admin := tokenForRole(t, "admin")
	vendedor := tokenForRole(t, "vendedor")

	resp := doJSON(t, app, http.MethodPost, "/api/transfers", vendedor, dto.CreateTransferRequest{
		OriginID:      originBranch,
		DestinationID: destBranch,
		Lines:         []dto.CreateTransferLineRequest{{ProductID: productID, Quantity: 5}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeTransfer(t, resp)

	// El vendedor puede solicitar pero no aprobar.
	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/transfers/%s/approve", created.ID), vendedor, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/transfers/%s/approve", created.ID), admin, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTransfersAPI_SinTokenDevuelve401(t *testing.T) {
	app := newTestAPI(t)
	resp := doJSON(t, app, http.MethodGet, "/api/transfers", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
