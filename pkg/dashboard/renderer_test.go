package dashboard

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type renderedDashboard struct {
	Dashboard struct {
		UID    string `json:"uid"`
		Title  string `json:"title"`
		Panels []struct {
			ID         int    `json:"id"`
			Title      string `json:"title"`
			Datasource string `json:"datasource"`
			GridPos    struct {
				X int `json:"x"`
				Y int `json:"y"`
			} `json:"gridPos"`
		} `json:"panels"`
	} `json:"dashboard"`
	Overwrite bool `json:"overwrite"`
}

func newRenderer(t *testing.T) *Renderer {
	renderer, err := NewRenderer("", "")
	require.NoError(t, err)
	return renderer
}

func TestRenderCustomerDashboard(t *testing.T) {
	renderer := newRenderer(t)

	t.Run("One panel per data source in input order", func(t *testing.T) {
		info := []DatasourceInfo{
			{Name: "acme-2234-567890.reg00001-1.cna.ukcloud.com", Label: "2234-567890.reg00001-1.cna.ukcloud.com"},
			{Name: "acme-1234-567890.reg00001-1.cna.ukcloud.com", Label: "1234-567890.reg00001-1.cna.ukcloud.com"},
			{Name: "acme-3234-567890.reg00001-1.cna.ukcloud.com", Label: "3234-567890.reg00001-1.cna.ukcloud.com"},
		}
		body, err := renderer.RenderCustomerDashboard(info, "acme")
		require.NoError(t, err)

		dashboard := &renderedDashboard{}
		require.NoError(t, json.Unmarshal([]byte(body), dashboard))
		require.True(t, dashboard.Overwrite)
		require.Equal(t, "acme", dashboard.Dashboard.Title)
		require.Equal(t, UID("acme"), dashboard.Dashboard.UID)
		require.True(t, strings.HasPrefix(dashboard.Dashboard.UID, "acme-"))
		require.Len(t, dashboard.Dashboard.Panels, len(info))
		for idx, panel := range dashboard.Dashboard.Panels {
			require.Equal(t, idx+1, panel.ID)
			require.Equal(t, info[idx].Name, panel.Datasource)
			require.Equal(t, info[idx].Label, panel.Title)
		}
		require.Equal(t, 12, dashboard.Dashboard.Panels[1].GridPos.X)
		require.Equal(t, 0, dashboard.Dashboard.Panels[2].GridPos.X)
		require.Equal(t, 8, dashboard.Dashboard.Panels[2].GridPos.Y)
	})

	t.Run("Rendering is deterministic", func(t *testing.T) {
		info := []DatasourceInfo{{Name: "acme-a.b.c.d.e", Label: "a.b.c.d.e"}}
		first, err := renderer.RenderCustomerDashboard(info, "acme")
		require.NoError(t, err)
		second, err := renderer.RenderCustomerDashboard(info, "acme")
		require.NoError(t, err)
		require.Equal(t, first, second)
	})

	t.Run("Customer without data sources", func(t *testing.T) {
		body, err := renderer.RenderCustomerDashboard(nil, "empty")
		require.NoError(t, err)
		dashboard := &renderedDashboard{}
		require.NoError(t, json.Unmarshal([]byte(body), dashboard))
		require.Empty(t, dashboard.Dashboard.Panels)
	})

	t.Run("Special characters are escaped", func(t *testing.T) {
		customer := `Acme "Quotes" & <Tags>`
		body, err := renderer.RenderCustomerDashboard([]DatasourceInfo{{Name: customer + "-x", Label: `x\y`}}, customer)
		require.NoError(t, err)
		dashboard := &renderedDashboard{}
		require.NoError(t, json.Unmarshal([]byte(body), dashboard))
		require.Equal(t, customer, dashboard.Dashboard.Title)
		require.Equal(t, `x\y`, dashboard.Dashboard.Panels[0].Title)
	})
}

func TestRenderAdminDashboard(t *testing.T) {
	t.Run("Embedded admin dashboard", func(t *testing.T) {
		body, err := newRenderer(t).RenderAdminDashboard()
		require.NoError(t, err)

		var doc map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(body), &doc))
		require.Contains(t, doc, "dashboard")
		require.Equal(t, true, doc["overwrite"])
	})

	t.Run("YAML admin dashboard is converted and wrapped", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "admin.yaml")
		require.NoError(t, os.WriteFile(file, []byte("uid: admin\ntitle: Admin\npanels: []\n"), 0600))

		renderer, err := NewRenderer("", file)
		require.NoError(t, err)
		body, err := renderer.RenderAdminDashboard()
		require.NoError(t, err)
		require.JSONEq(t, `{"dashboard":{"uid":"admin","title":"Admin","panels":[]},"overwrite":true,"inputs":[],"folderId":0}`, body)
	})

	t.Run("JSON import body is kept as it is", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "admin.json")
		content := `{"dashboard":{"title":"Admin"},"overwrite":false}`
		require.NoError(t, os.WriteFile(file, []byte(content), 0600))

		renderer, err := NewRenderer("", file)
		require.NoError(t, err)
		body, err := renderer.RenderAdminDashboard()
		require.NoError(t, err)
		require.Equal(t, content, body)
	})
}

func TestNewRenderer(t *testing.T) {
	t.Run("Missing template directory is fatal", func(t *testing.T) {
		_, err := NewRenderer(filepath.Join(t.TempDir(), "missing"), "")
		require.Error(t, err)
	})

	t.Run("Missing admin dashboard is fatal", func(t *testing.T) {
		_, err := NewRenderer("", filepath.Join(t.TempDir(), "admin.json"))
		require.Error(t, err)
	})

	t.Run("Invalid admin dashboard is fatal", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "admin.json")
		require.NoError(t, os.WriteFile(file, []byte("[1, 2"), 0600))
		_, err := NewRenderer("", file)
		require.Error(t, err)
	})

	t.Run("Custom template directory", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, CustomerTemplate),
			[]byte(`{"dashboard":{"title":{{ .Title | toJson }},"panels":[{{ range $i, $ds := .Datasources }}{{ if $i }},{{ end }}{{ $ds.Name | toJson }}{{ end }}]}}`), 0600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, AdminTemplate), []byte(`{"title":"Admin"}`), 0600))

		renderer, err := NewRenderer(dir, "")
		require.NoError(t, err)
		body, err := renderer.RenderCustomerDashboard([]DatasourceInfo{{Name: "a"}, {Name: "b"}}, "acme")
		require.NoError(t, err)
		require.JSONEq(t, `{"dashboard":{"title":"acme","panels":["a","b"]}}`, body)
	})

	t.Run("Template producing invalid JSON fails the render call", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, CustomerTemplate), []byte(`{"title": {{ .Title }}}`), 0600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, AdminTemplate), []byte(`{}`), 0600))

		renderer, err := NewRenderer(dir, "")
		require.NoError(t, err)
		_, err = renderer.RenderCustomerDashboard(nil, "acme")
		require.Error(t, err)
	})
}

func TestUID(t *testing.T) {
	validUID := regexp.MustCompile(`^[a-zA-Z0-9_-]{1,40}$`)

	t.Run("Readable prefix", func(t *testing.T) {
		require.True(t, strings.HasPrefix(UID("acme"), "acme-"))
		require.True(t, strings.HasPrefix(UID("Acme Corp"), "acme-corp-"))
		require.Equal(t, UID("acme"), UID("acme"))
	})

	t.Run("Distinct customers get distinct UIDs", func(t *testing.T) {
		names := []string{"acme_corp", "acme-corp", "AcmeCorp", "acme corp", "acme.corp", "acme", "Acme", "acme/corp"}
		seen := make(map[string]string)
		for _, name := range names {
			uid := UID(name)
			other, duplicate := seen[uid]
			require.False(t, duplicate, "'%s' and '%s' share UID '%s'", name, other, uid)
			seen[uid] = name
		}
	})

	t.Run("Only valid characters and length", func(t *testing.T) {
		for _, name := range []string{
			"acme/corp:prod",
			"ünïcödé ünïcödé ünïcödé ünïcödé ünïcödé",
			strings.Repeat("customer ", 10),
			"日本",
			"--",
		} {
			uid := UID(name)
			require.Regexp(t, validUID, uid, name)
			require.False(t, strings.HasSuffix(uid, "--"), name)
		}
	})
}
