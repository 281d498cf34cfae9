package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jgoulah/gridtariff/internal/normalize"
	"github.com/jgoulah/gridtariff/pkg/models"
)

// Tariff columns keyed by field, with the header names accepted for each
var tariffColumns = []struct {
	field   string
	aliases []string
}{
	{"month", []string{"month", "mes"}},
	{"provider", []string{"provider", "comercializador"}},
	{"city", []string{"city", "ciudad"}},
	{"tier_descriptor", []string{"tier_descriptor", "nivel_de_tension"}},
	{"rate", []string{"rate", "tarifa"}},
}

// TariffClient downloads the published tariff table. The endpoint answers a resource
// id with the location of a CSV export.
type TariffClient struct {
	endpoint   string
	resourceID int
	client     *http.Client
}

// NewTariffClient creates a client for endpoint and resourceID
func NewTariffClient(endpoint string, resourceID int, timeout time.Duration) *TariffClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TariffClient{
		endpoint:   endpoint,
		resourceID: resourceID,
		client:     &http.Client{Timeout: timeout},
	}
}

// locator is the endpoint response; the CSV location comes under one of three keys
type locator struct {
	IframeURL string `json:"iframeUrl"`
	CSVURL    string `json:"csv_url"`
	URL       string `json:"url"`
}

func (l locator) location() string {
	switch {
	case l.IframeURL != "":
		return l.IframeURL
	case l.CSVURL != "":
		return l.CSVURL
	default:
		return l.URL
	}
}

// FetchCSV resolves the CSV location and downloads it
func (c *TariffClient) FetchCSV(ctx context.Context) ([]byte, error) {
	payload, err := json.Marshal(map[string]int{"resource_id": c.resourceID})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting tariff location: %w", err)
	}

	var loc locator
	if err := json.Unmarshal(body, &loc); err != nil {
		return nil, fmt.Errorf("decoding tariff location: %w", err)
	}
	csvURL := loc.location()
	if csvURL == "" {
		return nil, fmt.Errorf("no CSV location in response: %s", preview(body))
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodGet, csvURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating CSV request: %w", err)
	}
	data, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading tariff CSV: %w", err)
	}
	return data, nil
}

// Fetch downloads and parses the tariff table
func (c *TariffClient) Fetch(ctx context.Context) ([]models.TariffRecord, error) {
	data, err := c.FetchCSV(ctx)
	if err != nil {
		return nil, err
	}
	return ParseTariffCSV(bytes.NewReader(data))
}

func (c *TariffClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d: %s", req.URL.Host, resp.StatusCode, preview(body))
	}
	return body, nil
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

func tariffHeaderKey(col string) string {
	return strings.ToLower(strings.ReplaceAll(normalize.Text(col), " ", "_"))
}

// ParseTariffCSV reads a tariff table. Headers are matched case- and accent-insensitively
// against the accepted names of each field.
func ParseTariffCSV(r io.Reader) ([]models.TariffRecord, error) {
	t, err := readTable(r, tariffHeaderKey)
	if err != nil {
		return nil, err
	}

	cols := make(map[string]string, len(tariffColumns))
	var missing []string
	for _, c := range tariffColumns {
		for _, alias := range c.aliases {
			if _, ok := t.header[alias]; ok {
				cols[c.field] = alias
				break
			}
		}
		if _, ok := cols[c.field]; !ok {
			missing = append(missing, c.field)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Source: "tariffs", Columns: missing}
	}

	records := make([]models.TariffRecord, 0, len(t.rows))
	for _, row := range t.rows {
		rec := models.TariffRecord{
			Month:          t.get(row, cols["month"]),
			Provider:       t.get(row, cols["provider"]),
			City:           t.get(row, cols["city"]),
			TierDescriptor: t.get(row, cols["tier_descriptor"]),
			Rate:           t.get(row, cols["rate"]),
		}
		if rec.Month == "" && rec.Provider == "" && rec.Rate == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// LoadTariffCSV parses a tariff table from disk
func LoadTariffCSV(path string) ([]models.TariffRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening tariff file: %w", err)
	}
	defer f.Close()

	records, err := ParseTariffCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return records, nil
}
