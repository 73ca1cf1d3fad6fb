package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"propertytrack/internal/models"
	"propertytrack/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func (h *harness) upload(path, token, filename string, content []byte) (int, map[string]any) {
	h.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(h.t, err)
	_, err = part.Write(content)
	require.NoError(h.t, err)
	require.NoError(h.t, mw.Close())

	req := httptest.NewRequest("POST", path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := h.app.Test(req, -1)
	require.NoError(h.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	out := map[string]any{}
	require.NoError(h.t, json.Unmarshal(raw, &out))
	return resp.StatusCode, out
}

func inventorySheet(t *testing.T) []byte {
	t.Helper()
	wb := excelize.NewFile()
	defer wb.Close()
	sheet := wb.GetSheetName(0)
	require.NoError(t, wb.SetSheetRow(sheet, "A1", &[]any{"Name", "Category", "Quantity"}))
	require.NoError(t, wb.SetSheetRow(sheet, "A2", &[]any{"Kettle", "kitchen", 1}))
	require.NoError(t, wb.SetSheetRow(sheet, "A3", &[]any{"Mug", "kitchen", 6}))
	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestInventoryImportExportOverHTTP(t *testing.T) {
	h := newHarness(t)
	host := testutil.CreateUser(t, h.db, "host@example.com", models.RoleHost)
	other := testutil.CreateUser(t, h.db, "other@example.com", models.RoleHost)
	prop := testutil.CreateProperty(t, h.db, host.ID, "Flat")
	room := testutil.CreateRoom(t, h.db, prop.ID, "Kitchen")
	importPath := fmt.Sprintf("/api/rooms/%d/inventory/import", room.ID)

	status, body := h.upload(importPath, h.tokenFor(host), "kitchen.xlsx", inventorySheet(t))
	require.Equal(t, fiber.StatusCreated, status, body)
	assert.EqualValues(t, 2, body["count"])

	status, body = h.upload(importPath, h.tokenFor(host), "kitchen.csv", []byte("name\nKettle\n"))
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "only .xlsx files can be imported", body["message"])

	status, _ = h.upload(importPath, h.tokenFor(other), "kitchen.xlsx", inventorySheet(t))
	assert.Equal(t, fiber.StatusForbidden, status)

	req := httptest.NewRequest("GET", fmt.Sprintf("/api/properties/%d/inventory/export", prop.ID), nil)
	req.Header.Set("Authorization", "Bearer "+h.tokenFor(host))
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "inventory-")

	wb, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows("Inventory")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}
