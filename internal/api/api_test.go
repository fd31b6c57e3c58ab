package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/larder-app/larder/internal/db"
	"github.com/larder-app/larder/internal/model"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret, "*")
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

// register creates an account through the API and returns its token.
func register(t *testing.T, server *httptest.Server, email string) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{
		"name":     "Test User",
		"email":    email,
		"password": "password123",
	})
	resp, err := http.Post(server.URL+"/api/auth/register", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register failed: %d", resp.StatusCode)
	}

	var authResp struct {
		Token string      `json:"token"`
		User  *model.User `json:"user"`
	}
	json.NewDecoder(resp.Body).Decode(&authResp)
	if authResp.Token == "" {
		t.Fatal("empty token from register")
	}
	if authResp.User == nil || authResp.User.Email != email {
		t.Fatal("register response missing user")
	}

	return authResp.Token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func doJSON(t *testing.T, req *http.Request, target any) int {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if target != nil {
		json.NewDecoder(resp.Body).Decode(target)
	}
	return resp.StatusCode
}

func TestRegisterAndLogin(t *testing.T) {
	server := setupTestServer(t)
	register(t, server, "ana@example.com")

	// Login with the registered credentials.
	body, _ := json.Marshal(map[string]string{"email": "ana@example.com", "password": "password123"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var loginResp map[string]any
	json.NewDecoder(resp.Body).Decode(&loginResp)
	resp.Body.Close()
	if loginResp["token"] == "" {
		t.Error("empty token from login")
	}

	// Wrong password.
	body, _ = json.Marshal(map[string]string{"email": "ana@example.com", "password": "wrong"})
	resp, _ = http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Unknown email.
	body, _ = json.Marshal(map[string]string{"email": "nobody@example.com", "password": "password123"})
	resp, _ = http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unknown email, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRegisterDuplicateEmail(t *testing.T) {
	server := setupTestServer(t)
	register(t, server, "ana@example.com")

	body, _ := json.Marshal(map[string]string{
		"name":     "Other",
		"email":    "ana@example.com",
		"password": "password123",
	})
	resp, _ := http.Post(server.URL+"/api/auth/register", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for duplicate email, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRegisterShortPassword(t *testing.T) {
	server := setupTestServer(t)

	body, _ := json.Marshal(map[string]string{
		"name":     "Ana",
		"email":    "ana@example.com",
		"password": "short",
	})
	resp, _ := http.Post(server.URL+"/api/auth/register", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for short password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUnauthenticatedAccess(t *testing.T) {
	server := setupTestServer(t)

	resp, _ := http.Get(server.URL + "/api/inventory")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestInventoryAPIFlow(t *testing.T) {
	server := setupTestServer(t)
	token := register(t, server, "ana@example.com")

	// Create.
	req, _ := authRequest("POST", server.URL+"/api/inventory", token, map[string]any{
		"name":         "Milk",
		"quantity":     2,
		"unit":         "L",
		"expiry_date":  "2026-09-10",
		"min_quantity": 1,
	})
	var created model.InventoryItem
	if status := doJSON(t, req, &created); status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if created.ID == "" || created.Name != "Milk" {
		t.Fatalf("unexpected created item: %+v", created)
	}
	if created.ExpiryDate == nil {
		t.Error("expiry date not stored")
	}

	// List.
	req, _ = authRequest("GET", server.URL+"/api/inventory", token, nil)
	var items []model.InventoryItem
	if status := doJSON(t, req, &items); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	// Partial update: quantity only, the rest untouched.
	req, _ = authRequest("PUT", server.URL+"/api/inventory/"+created.ID, token, map[string]any{
		"quantity": 0.5,
	})
	var updated model.InventoryItem
	if status := doJSON(t, req, &updated); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if updated.Quantity != 0.5 {
		t.Errorf("quantity = %v, want 0.5", updated.Quantity)
	}
	if updated.Name != "Milk" || updated.Unit != "L" {
		t.Errorf("untouched fields changed: %+v", updated)
	}

	// Delete.
	req, _ = authRequest("DELETE", server.URL+"/api/inventory/"+created.ID, token, nil)
	if status := doJSON(t, req, nil); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}

	// List is empty again.
	req, _ = authRequest("GET", server.URL+"/api/inventory", token, nil)
	items = nil
	doJSON(t, req, &items)
	if len(items) != 0 {
		t.Errorf("expected empty list after delete, got %d items", len(items))
	}
}

func TestInventoryValidation(t *testing.T) {
	server := setupTestServer(t)
	token := register(t, server, "ana@example.com")

	cases := []struct {
		name string
		body map[string]any
	}{
		{"blank name", map[string]any{"name": "   ", "quantity": 1}},
		{"digits in name", map[string]any{"name": "Milk2", "quantity": 1}},
		{"missing quantity", map[string]any{"name": "Milk"}},
		{"negative quantity", map[string]any{"name": "Milk", "quantity": -1}},
		{"digits in unit", map[string]any{"name": "Milk", "quantity": 1, "unit": "5L"}},
		{"zero min quantity", map[string]any{"name": "Milk", "quantity": 1, "min_quantity": 0}},
		{"bad expiry date", map[string]any{"name": "Milk", "quantity": 1, "expiry_date": "soon"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, _ := authRequest("POST", server.URL+"/api/inventory", token, tc.body)
			if status := doJSON(t, req, nil); status != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", status)
			}
		})
	}

	// None of the rejected requests created a record.
	req, _ := authRequest("GET", server.URL+"/api/inventory", token, nil)
	var items []model.InventoryItem
	doJSON(t, req, &items)
	if len(items) != 0 {
		t.Errorf("expected no items after rejected creates, got %d", len(items))
	}
}

func TestInventoryOwnership(t *testing.T) {
	server := setupTestServer(t)
	anaToken := register(t, server, "ana@example.com")
	bobToken := register(t, server, "bob@example.com")

	req, _ := authRequest("POST", server.URL+"/api/inventory", anaToken, map[string]any{
		"name": "Milk", "quantity": 2,
	})
	var created model.InventoryItem
	if status := doJSON(t, req, &created); status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}

	// Bob cannot see, update, or delete Ana's item.
	req, _ = authRequest("GET", server.URL+"/api/inventory", bobToken, nil)
	var items []model.InventoryItem
	doJSON(t, req, &items)
	if len(items) != 0 {
		t.Errorf("expected empty list for other user, got %d items", len(items))
	}

	req, _ = authRequest("PUT", server.URL+"/api/inventory/"+created.ID, bobToken, map[string]any{"quantity": 99})
	if status := doJSON(t, req, nil); status != http.StatusNotFound {
		t.Errorf("expected 404 for foreign update, got %d", status)
	}

	req, _ = authRequest("DELETE", server.URL+"/api/inventory/"+created.ID, bobToken, nil)
	if status := doJSON(t, req, nil); status != http.StatusNotFound {
		t.Errorf("expected 404 for foreign delete, got %d", status)
	}

	// Still intact for Ana.
	req, _ = authRequest("GET", server.URL+"/api/inventory", anaToken, nil)
	items = nil
	doJSON(t, req, &items)
	if len(items) != 1 || items[0].Quantity != 2 {
		t.Errorf("item changed by foreign requests: %+v", items)
	}
}

func TestShoppingValidation(t *testing.T) {
	server := setupTestServer(t)
	token := register(t, server, "ana@example.com")

	cases := []struct {
		name string
		body map[string]any
	}{
		{"missing name", map[string]any{"quantity": 1, "unit": "loaf"}},
		{"digits in name", map[string]any{"name": "Bread2", "quantity": 1, "unit": "loaf"}},
		{"missing unit", map[string]any{"name": "Bread", "quantity": 1}},
		{"blank unit", map[string]any{"name": "Bread", "quantity": 1, "unit": "  "}},
		{"digits in unit", map[string]any{"name": "Bread", "quantity": 1, "unit": "500g"}},
		{"missing quantity", map[string]any{"name": "Bread", "unit": "loaf"}},
		{"zero quantity", map[string]any{"name": "Bread", "quantity": 0, "unit": "loaf"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, _ := authRequest("POST", server.URL+"/api/shopping", token, tc.body)
			if status := doJSON(t, req, nil); status != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", status)
			}
		})
	}

	// None of the rejected requests created a record.
	req, _ := authRequest("GET", server.URL+"/api/shopping", token, nil)
	var items []model.ShoppingItem
	doJSON(t, req, &items)
	if len(items) != 0 {
		t.Errorf("expected no items after rejected creates, got %d", len(items))
	}
}

func TestMoveToShoppingEndpoint(t *testing.T) {
	server := setupTestServer(t)
	token := register(t, server, "ana@example.com")

	req, _ := authRequest("POST", server.URL+"/api/inventory", token, map[string]any{
		"name": "Milk", "quantity": 0, "unit": "L",
	})
	var pantryItem model.InventoryItem
	if status := doJSON(t, req, &pantryItem); status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}

	// Move onto the shopping list, buying 3.
	req, _ = authRequest("POST", server.URL+"/api/shopping", token, map[string]any{
		"inventory_item_id": pantryItem.ID,
		"quantity":          3,
	})
	var listItem model.ShoppingItem
	if status := doJSON(t, req, &listItem); status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if listItem.Name != "Milk" || listItem.Unit != "L" || listItem.Quantity != 3 {
		t.Errorf("unexpected shopping item: %+v", listItem)
	}

	// Pantry no longer has the item.
	req, _ = authRequest("GET", server.URL+"/api/inventory", token, nil)
	var items []model.InventoryItem
	doJSON(t, req, &items)
	if len(items) != 0 {
		t.Errorf("expected empty pantry after move, got %d items", len(items))
	}

	// Moving a missing item is a 404 and creates nothing.
	req, _ = authRequest("POST", server.URL+"/api/shopping", token, map[string]any{
		"inventory_item_id": "no-such-id",
		"quantity":          1,
	})
	if status := doJSON(t, req, nil); status != http.StatusNotFound {
		t.Errorf("expected 404 for missing item, got %d", status)
	}
	req, _ = authRequest("GET", server.URL+"/api/shopping", token, nil)
	var listItems []model.ShoppingItem
	doJSON(t, req, &listItems)
	if len(listItems) != 1 {
		t.Errorf("expected 1 shopping item, got %d", len(listItems))
	}
}

func TestMarkPurchasedEndpoint(t *testing.T) {
	server := setupTestServer(t)
	token := register(t, server, "ana@example.com")

	req, _ := authRequest("POST", server.URL+"/api/shopping", token, map[string]any{
		"name": "Eggs", "quantity": 12, "unit": "pcs",
	})
	var listItem model.ShoppingItem
	if status := doJSON(t, req, &listItem); status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}

	// Purchase into the pantry with an expiry date.
	req, _ = authRequest("DELETE", server.URL+"/api/shopping/"+listItem.ID, token, map[string]any{
		"moving":      true,
		"expiry_date": "2026-09-14",
	})
	var pantryItem model.InventoryItem
	if status := doJSON(t, req, &pantryItem); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if pantryItem.Name != "Eggs" || pantryItem.Quantity != 12 || pantryItem.Unit != "pcs" {
		t.Errorf("unexpected pantry item: %+v", pantryItem)
	}
	if pantryItem.ExpiryDate == nil {
		t.Error("expiry date not carried over")
	}
	if pantryItem.MinQuantity != model.DefaultMinQuantity {
		t.Errorf("min quantity = %v, want %v", pantryItem.MinQuantity, model.DefaultMinQuantity)
	}

	// The list entry is gone.
	req, _ = authRequest("GET", server.URL+"/api/shopping", token, nil)
	var listItems []model.ShoppingItem
	doJSON(t, req, &listItems)
	if len(listItems) != 0 {
		t.Errorf("expected empty shopping list, got %d items", len(listItems))
	}
}

func TestShoppingDeleteWithoutMoving(t *testing.T) {
	server := setupTestServer(t)
	token := register(t, server, "ana@example.com")

	req, _ := authRequest("POST", server.URL+"/api/shopping", token, map[string]any{
		"name": "Bread", "quantity": 1, "unit": "loaf",
	})
	var listItem model.ShoppingItem
	if status := doJSON(t, req, &listItem); status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}

	// Plain delete, no body.
	req, _ = authRequest("DELETE", server.URL+"/api/shopping/"+listItem.ID, token, nil)
	if status := doJSON(t, req, nil); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}

	// Nothing landed in the pantry.
	req, _ = authRequest("GET", server.URL+"/api/inventory", token, nil)
	var items []model.InventoryItem
	doJSON(t, req, &items)
	if len(items) != 0 {
		t.Errorf("expected empty pantry, got %d items", len(items))
	}
}

func TestInventoryStats(t *testing.T) {
	server := setupTestServer(t)
	token := register(t, server, "ana@example.com")

	// Out of stock, low stock, and fine.
	for _, body := range []map[string]any{
		{"name": "Milk", "quantity": 0},
		{"name": "Eggs", "quantity": 1, "min_quantity": 6},
		{"name": "Rice", "quantity": 5, "min_quantity": 1},
	} {
		req, _ := authRequest("POST", server.URL+"/api/inventory", token, body)
		if status := doJSON(t, req, nil); status != http.StatusCreated {
			t.Fatalf("create failed: %d", status)
		}
	}

	req, _ := authRequest("GET", server.URL+"/api/inventory/stats", token, nil)
	var stats struct {
		Total      int `json:"total"`
		OutOfStock int `json:"out_of_stock"`
		LowStock   int `json:"low_stock"`
		Expired    int `json:"expired"`
	}
	if status := doJSON(t, req, &stats); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if stats.Total != 3 {
		t.Errorf("total = %d, want 3", stats.Total)
	}
	if stats.OutOfStock != 1 {
		t.Errorf("out_of_stock = %d, want 1", stats.OutOfStock)
	}
	if stats.LowStock != 1 {
		t.Errorf("low_stock = %d, want 1", stats.LowStock)
	}
	if stats.Expired != 0 {
		t.Errorf("expired = %d, want 0", stats.Expired)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	server := setupTestServer(t)
	token := register(t, server, "ana@example.com")

	req, _ := authRequest("POST", server.URL+"/api/auth/logout", token, nil)
	if status := doJSON(t, req, nil); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}

	req, _ = authRequest("GET", server.URL+"/api/inventory", token, nil)
	if status := doJSON(t, req, nil); status != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", status)
	}
}
