package dashboard

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/iancoleman/strcase"
	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"
)

const (
	CustomerTemplate = "customer.json.tmpl"
	AdminTemplate    = "admin.json"

	maxUIDLength = 40
)

var uidInvalidChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

//go:embed templates
var embedded embed.FS

// DatasourceInfo binds a data source (by name) to the short label of its cluster.
type DatasourceInfo struct {
	Name  string
	Label string
}

type customerData struct {
	UID         string
	Title       string
	Datasources []DatasourceInfo
}

// Renderer produces the dashboard request bodies. Templates are loaded once: a missing
// or broken template fails NewRenderer and never a single render call.
type Renderer struct {
	customer *template.Template
	admin    string
}

// NewRenderer loads the templates from templatesDir (embedded templates if empty).
// adminDashboard optionally points to a JSON or YAML file replacing the admin template.
func NewRenderer(templatesDir, adminDashboard string) (*Renderer, error) {
	var fsys fs.FS
	if templatesDir == "" {
		sub, err := fs.Sub(embedded, "templates")
		if err != nil {
			return nil, err
		}
		fsys = sub
	} else {
		fsys = os.DirFS(templatesDir)
	}

	customer, err := template.New(CustomerTemplate).
		Funcs(sprig.TxtFuncMap()).
		ParseFS(fsys, CustomerTemplate)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load dashboard template '%s'", CustomerTemplate)
	}

	var admin []byte
	if adminDashboard == "" {
		admin, err = fs.ReadFile(fsys, AdminTemplate)
	} else {
		admin, err = os.ReadFile(adminDashboard)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load admin dashboard")
	}
	adminBody, err := importBody(admin, adminDashboard)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load admin dashboard")
	}

	return &Renderer{
		customer: customer,
		admin:    adminBody,
	}, nil
}

// RenderCustomerDashboard returns the body for the dashboard creation endpoint:
// titled by the customer, one panel per data source in the given order.
func (r *Renderer) RenderCustomerDashboard(datasourceInfo []DatasourceInfo, customer string) (string, error) {
	var buffer bytes.Buffer
	err := r.customer.Execute(&buffer, customerData{
		UID:         UID(customer),
		Title:       customer,
		Datasources: datasourceInfo,
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to render dashboard of customer '%s'", customer)
	}
	if !json.Valid(buffer.Bytes()) {
		return "", fmt.Errorf("rendered dashboard of customer '%s' is not valid JSON", customer)
	}
	return buffer.String(), nil
}

// RenderAdminDashboard returns the fixed body for the dashboard import endpoint.
func (r *Renderer) RenderAdminDashboard() (string, error) {
	return r.admin, nil
}

// UID derives a Grafana dashboard UID (max. 40 characters of [a-zA-Z0-9_-]) from the customer name.
// The readable prefix is followed by a hash of the raw name: names which only differ in case or
// punctuation still get distinct UIDs.
func UID(customer string) string {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(customer))
	suffix := fmt.Sprintf("%08x", hash.Sum32())

	prefix := uidInvalidChars.ReplaceAllString(strcase.ToKebab(customer), "-")
	prefix = strings.Trim(prefix, "-")
	if maxPrefix := maxUIDLength - len(suffix) - 1; len(prefix) > maxPrefix {
		prefix = strings.TrimRight(prefix[:maxPrefix], "-")
	}
	if prefix == "" {
		return suffix
	}
	return prefix + "-" + suffix
}

// importBody accepts JSON or YAML (by file extension) and wraps a bare dashboard model into an import request
func importBody(content []byte, fileName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == ".yaml" || ext == ".yml" {
		converted, err := yaml.YAMLToJSON(content)
		if err != nil {
			return "", err
		}
		content = converted
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(content, &doc); err != nil {
		return "", errors.Wrap(err, "admin dashboard is not a valid JSON object")
	}
	if _, ok := doc["dashboard"]; ok {
		return string(content), nil
	}

	wrapped, err := json.Marshal(map[string]interface{}{
		"dashboard": doc,
		"overwrite": true,
		"inputs":    []interface{}{},
		"folderId":  0,
	})
	if err != nil {
		return "", err
	}
	return string(wrapped), nil
}
