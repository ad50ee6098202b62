package ui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/xuri/excelize/v2"

	"inspectdash/adapters/evidence"
	"inspectdash/adapters/excel"
	"inspectdash/app"
	"inspectdash/domain/inspection"
	"inspectdash/internal/analysis"
	"inspectdash/internal/dataset"
)

const inspectionsCSV = `Nº,MES,SECCIÓN,ÁREA,RESPONSABLE DE ÁREA,Estado,DESCRIPCIÓN,Acción Correctiva,RIESGO ASOCIADO,Fecha de Cumplimiento
1,Enero,Taller,Bodega,Ana,Pendiente,Extintor vencido,Recargar extintor,Incendio,2025-02-15
2,Enero,Taller,Bodega,Ana,Completado,Cable expuesto,Aislar cable,Eléctrico,2025-02-01
3,Enero,Taller,Patio,,,Derrame de aceite,Limpiar derrame,Caída,2025-02-20
4,Febrero,Oficina,Recepción,Luis,Pendiente,Salida bloqueada,Despejar salida,Evacuación,2025-03-01
`

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, path string) *Server {
	t.Helper()
	reader := excel.NewDataReader(excel.DefaultExcelConfig(), nil)
	normalizer := analysis.NewNormalizer(inspection.DefaultColumns(), nil)
	loader := dataset.NewLoader(path, reader, normalizer, nil)
	store := evidence.NewPreviewStore(evidence.DefaultConfig(), nil)
	service := app.NewDashboardService(loader, store, nil)

	server, err := NewServer(service, Assets, Options{Title: "Tablero de prueba", MaxUploadBytes: 1 << 20}, nil)
	require.NoError(t, err)
	return server
}

func serverWithData(t *testing.T) *Server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inspecciones.csv")
	require.NoError(t, os.WriteFile(path, []byte(inspectionsCSV), 0o644))
	return newTestServer(t, path)
}

func get(t *testing.T, s *Server, target string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func pngPhoto(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(y), B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// postPhoto submits the owner portal upload form
func postPhoto(t *testing.T, s *Server, key, filename string, content []byte, fields map[string]string, accept string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile("photo", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/evidence/"+key, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func postForm(t *testing.T, s *Server, target string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestDashboardPage(t *testing.T) {
	s := serverWithData(t)

	w := get(t, s, "/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, body, "Tablero de prueba")
	assert.Contains(t, body, "Todos | Todas")
	assert.Contains(t, body, "Total Observaciones")
	assert.Contains(t, body, `id="kpi-total">4<`)
	assert.Contains(t, body, `id="kpi-closed">1<`)
	assert.Contains(t, body, `id="kpi-pending">3<`)
	assert.Contains(t, body, `id="kpi-compliance">25.0%<`)
	assert.Contains(t, body, "Ver tabla de datos filtrada")
	assert.Contains(t, body, "Salida bloqueada")
}

func TestDashboardPageFiltered(t *testing.T) {
	s := serverWithData(t)

	w := get(t, s, "/?month=Enero&section=Taller")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Enero | Taller")
	assert.Contains(t, body, `id="kpi-total">3<`)
	assert.Contains(t, body, `id="kpi-compliance">33.3%<`)
	assert.NotContains(t, body, "Salida bloqueada")
}

func TestDashboardPageWithoutPendingOwners(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inspecciones.csv")
	content := "MES,SECCIÓN,RESPONSABLE DE ÁREA,Estado\nEnero,Taller,Ana,Completado\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	s := newTestServer(t, path)

	w := get(t, s, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "¡Sin pendientes con los filtros aplicados!")
}

func TestDashboardLoadFailureShowsErrorPage(t *testing.T) {
	s := newTestServer(t, filepath.Join(t.TempDir(), "missing.xlsx"))

	w := get(t, s, "/")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Error crítico al cargar el archivo")
	assert.NotContains(t, body, "Total Observaciones")
}

func TestAPISummary(t *testing.T) {
	s := serverWithData(t)

	w := get(t, s, "/api/summary?month=Enero")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	assert.Equal(t, int64(3), gjson.Get(body, "summary.total").Int())
	assert.Equal(t, int64(1), gjson.Get(body, "summary.closed").Int())
	assert.Equal(t, int64(2), gjson.Get(body, "summary.pending").Int())
	assert.Equal(t, 33.3, gjson.Get(body, "summary.compliance_pct").Float())
	assert.Equal(t, "Ana", gjson.Get(body, "summary.pending_ranking.0.owner").String())
	assert.Equal(t, int64(1), gjson.Get(body, "summary.pending_ranking.#").Int())
	assert.Equal(t, "Enero", gjson.Get(body, "selection.month").String())
	assert.Equal(t, "inspecciones", gjson.Get(body, "source.sheet").String())
	assert.Equal(t, int64(1), gjson.Get(body, "report.blank_statuses").Int())
}

func TestAPIOptions(t *testing.T) {
	s := serverWithData(t)

	w := get(t, s, "/api/options")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	months := gjson.Get(body, "months.#.value").Array()
	require.Len(t, months, 3)
	assert.Equal(t, "", months[0].String())
	assert.Equal(t, "Enero", months[1].String())
	assert.Equal(t, "Febrero", months[2].String())
	assert.Equal(t, "Todos", gjson.Get(body, "months.0.label").String())
	assert.Equal(t, "Todas", gjson.Get(body, "sections.0.label").String())
}

func TestAPIOwner(t *testing.T) {
	s := serverWithData(t)

	w := get(t, s, "/api/owners/Ana")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, gjson.Get(body, "selected").Bool())
	assert.Equal(t, "Ana", gjson.Get(body, "detail.owner").String())
	assert.Equal(t, int64(1), gjson.Get(body, "detail.pending.#").Int())
	assert.Equal(t, "row-2", gjson.Get(body, "slots.0.observation.key").String())

	w = get(t, s, "/api/owners/Luis?month=Enero")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gjson.Get(w.Body.String(), "detail.congratulate").Bool())

	w = get(t, s, "/api/owners/%20")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", gjson.Get(w.Body.String(), "code").String())
}

func TestAPIReportsLoadFailure(t *testing.T) {
	s := newTestServer(t, filepath.Join(t.TempDir(), "missing.xlsx"))

	w := get(t, s, "/api/summary")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "LOAD_ERROR", gjson.Get(w.Body.String(), "code").String())
}

func TestHealth(t *testing.T) {
	s := serverWithData(t)
	w := get(t, s, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", gjson.Get(w.Body.String(), "status").String())
	assert.Equal(t, int64(4), gjson.Get(w.Body.String(), "rows").Int())

	broken := newTestServer(t, filepath.Join(t.TempDir(), "missing.xlsx"))
	w = get(t, broken, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "error", gjson.Get(w.Body.String(), "status").String())
}

func TestStatusChart(t *testing.T) {
	s := serverWithData(t)

	w := get(t, s, "/charts/status.svg?month=Enero")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "<svg")
}

func TestExportWorkbook(t *testing.T) {
	s := serverWithData(t)

	w := get(t, s, "/export.xlsx?month=Enero")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "inspecciones.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(excel.DefaultSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Nº", rows[0][0])
	assert.Equal(t, "Enero", rows[1][1])
	assert.Equal(t, "Overdue", rows[1][5])
	assert.Equal(t, "Completed", rows[2][5])
}

func TestStaticAssets(t *testing.T) {
	s := serverWithData(t)
	w := get(t, s, "/static/css/dashboard.css")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOwnerPortal(t *testing.T) {
	s := serverWithData(t)

	w := get(t, s, "/owner")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Los filtros de la izquierda también afectan tu búsqueda personal")
	assert.NotContains(t, w.Body.String(), "pendientes en esta selección")

	w = get(t, s, "/owner?owner=Ana")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "tienes <strong>1</strong> pendientes en esta selección")
	assert.Contains(t, body, "ID: 1 - Bodega")
	assert.Contains(t, body, "Extintor vencido")
	assert.Contains(t, body, `action="/evidence/row-2?owner=Ana"`)

	w = get(t, s, "/owner?owner=Luis&month=Enero")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No tienes deudas con los filtros actuales.")
}

func TestEvidenceUploadPreviewAndConfirm(t *testing.T) {
	s := serverWithData(t)
	fields := map[string]string{"owner": "Ana", "month": "Enero"}

	w := postPhoto(t, s, "row-2", "foto.png", pngPhoto(t, 500, 300), fields, "")
	require.Equal(t, http.StatusSeeOther, w.Code)
	location := w.Header().Get("Location")
	assert.True(t, strings.HasPrefix(location, "/owner?"))
	assert.Contains(t, location, "owner=Ana")
	assert.Contains(t, location, "flash=uploaded")
	assert.True(t, strings.HasSuffix(location, "#row-2"))

	w = get(t, s, "/evidence/row-2/preview")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	cfg, err := png.DecodeConfig(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Width)
	assert.Equal(t, 150, cfg.Height)

	w = get(t, s, "/owner?owner=Ana&month=Enero&flash=uploaded")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Enviar Registro ID 1")
	assert.Contains(t, w.Body.String(), "/evidence/row-2/preview")

	w = postForm(t, s, "/evidence/row-2/confirm", url.Values{"owner": {"Ana"}, "month": {"Enero"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "flash=confirmed")

	w = get(t, s, "/owner?owner=Ana&month=Enero")
	assert.Contains(t, w.Body.String(), "Registro enviado")
	assert.NotContains(t, w.Body.String(), "Enviar Registro ID 1")
}

func TestEvidenceUploadJSON(t *testing.T) {
	s := serverWithData(t)

	w := postPhoto(t, s, "row-5", "foto.png", pngPhoto(t, 100, 80), nil, "application/json")
	require.Equal(t, http.StatusCreated, w.Code)
	body := w.Body.String()
	assert.Equal(t, "row-5", gjson.Get(body, "key").String())
	assert.Equal(t, int64(100), gjson.Get(body, "width").Int())
	assert.Equal(t, "foto.png", gjson.Get(body, "filename").String())
	assert.False(t, gjson.Get(body, "Image").Exists(), "the image bytes are never serialized")
}

func TestEvidenceUploadRejectsBadPhotos(t *testing.T) {
	s := serverWithData(t)
	fields := map[string]string{"owner": "Ana"}

	w := postPhoto(t, s, "row-2", "nota.png", []byte("not an image at all"), fields, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No se pudo procesar la foto")
	assert.Contains(t, w.Body.String(), "Extintor vencido", "the portal is rendered again")

	w = postPhoto(t, s, "row-2", "foto.gif", pngPhoto(t, 10, 10), nil, "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", gjson.Get(w.Body.String(), "code").String())

	w = postPhoto(t, s, "row-99", "foto.png", pngPhoto(t, 10, 10), nil, "application/json")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = postPhoto(t, s, "fila-1", "foto.png", pngPhoto(t, 10, 10), nil, "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEvidencePreviewMissing(t *testing.T) {
	s := serverWithData(t)

	w := get(t, s, "/evidence/row-3/preview")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", gjson.Get(w.Body.String(), "code").String())

	w = postForm(t, s, "/evidence/row-3/confirm", url.Values{"owner": {"Ana"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEvidenceUploadTooLargeKeepsPortal(t *testing.T) {
	s := serverWithData(t)
	huge := bytes.Repeat([]byte{0xff}, 3<<20)

	w := postPhoto(t, s, "row-2?owner=Ana&month=Enero", "foto.png", huge, nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "No se pudo procesar la foto")
	assert.Contains(t, body, "Hola <strong>Ana</strong>")
	assert.Contains(t, body, "Extintor vencido", "the owner's panels survive an unreadable body")
}

func TestAPIReloadDropsPreviewsOfEditedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inspecciones.csv")
	require.NoError(t, os.WriteFile(path, []byte(inspectionsCSV), 0o644))
	s := newTestServer(t, path)

	w := postPhoto(t, s, "row-2", "foto.png", pngPhoto(t, 40, 40), nil, "application/json")
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, http.StatusOK, get(t, s, "/evidence/row-2/preview").Code)

	edited := strings.Replace(inspectionsCSV, "1,Enero,Taller,Bodega,Ana", "1,Enero,Taller,Bodega,Luis", 1)
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	w = postForm(t, s, "/api/reload", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "reloaded", gjson.Get(w.Body.String(), "status").String())
	assert.NotEmpty(t, gjson.Get(w.Body.String(), "hash").String())

	assert.Equal(t, http.StatusNotFound, get(t, s, "/evidence/row-2/preview").Code)

	require.NoError(t, os.Remove(path))
	w = postForm(t, s, "/api/reload", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "LOAD_ERROR", gjson.Get(w.Body.String(), "code").String())
}
