package finapp

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

const catalogURLEnv = "FINAPP_CATALOG_URL"

var catalogURLFlag = flag.String("catalog-url", "", "Base URL of the fund catalog service.\n If missing it will read the environment variable \""+catalogURLEnv+"\", defaulting to https://api.mfapi.in")

// CatalogURL returns the base URL of the fund catalog service.
func CatalogURL() string {
	if *catalogURLFlag == "" {
		*catalogURLFlag = os.Getenv(catalogURLEnv)
	}
	if *catalogURLFlag == "" {
		*catalogURLFlag = "https://api.mfapi.in"
	}
	return strings.TrimRight(*catalogURLFlag, "/")
}

// diskCache implements a simple disk cache for HTTP responses.
// The cache key includes today's date, so entries expire daily.
type diskCache struct {
	base http.RoundTripper
}

func (c *diskCache) RoundTrip(req *http.Request) (resp *http.Response, err error) {
	key := fmt.Sprintf("%s %s %s", Today().String(), req.Method, req.URL.String())
	key = fmt.Sprintf("%x", sha1.Sum([]byte(key)))

	cachedResp, err := c.get(key, req)
	if err == nil { // Cache hit
		return cachedResp, nil
	}

	resp, err = c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	log.Printf("%v %v%v %v", resp.Request.Method, resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	if resp.StatusCode >= 300 {
		return resp, nil
	}
	if err := c.put(key, resp); err != nil {
		log.Printf("cache write err (ignored): %v", err)
	}
	return resp, nil
}

func (c *diskCache) get(key string, req *http.Request) (*http.Response, error) {
	content, err := os.ReadFile(filepath.Join(os.TempDir(), key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewBuffer(content)), req)
}

func (c *diskCache) put(key string, resp *http.Response) error {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(os.TempDir(), key), content, 0644)
}

// daily returns an http client whose responses are cached until end of day.
func daily() *http.Client {
	client := new(http.Client)
	client.Transport = &diskCache{http.DefaultTransport}
	return client
}

// jwget performs an HTTP GET and unmarshals the JSON response into data.
func jwget(client *http.Client, addr string, data any) error {
	resp, err := client.Get(addr)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return err
	}
	return json.Unmarshal(buf.Bytes(), data)
}

// Catalog maps lower-cased fund names to their catalog identifiers.
type Catalog map[string]string

// FetchCatalog downloads the whole fund catalog from the catalog service.
// For every dashed name it also registers a dash-collapsed variant
// ("a - b" becomes "a b") to widen fuzzy-match recall.
func FetchCatalog(client *http.Client) (Catalog, error) {
	addr := CatalogURL() + "/funds-list"

	type entry struct {
		Identifier json.Number `json:"identifier"`
		Name       string      `json:"name"`
	}
	content := make([]entry, 0)
	if err := jwget(client, addr, &content); err != nil {
		return nil, fmt.Errorf("cannot fetch fund catalog: %w", err)
	}

	catalog := make(Catalog, 2*len(content))
	for _, e := range content {
		name := strings.ToLower(strings.TrimSpace(e.Name))
		code := e.Identifier.String()
		if name == "" || code == "" {
			continue
		}
		catalog[name] = code
		if strings.Contains(name, " - ") {
			catalog[strings.ReplaceAll(name, " - ", " ")] = code
		}
	}
	log.Printf("fetched %d fund mappings from catalog service", len(catalog))
	return catalog, nil
}

// LoadCatalog returns the catalog from the local cache file. On a missing or
// corrupt cache it fetches the catalog wholesale and persists it back.
func LoadCatalog(cacheFile string, client *http.Client) (Catalog, error) {
	content, err := os.ReadFile(cacheFile)
	if err == nil {
		var catalog Catalog
		if err := json.Unmarshal(content, &catalog); err == nil {
			return catalog, nil
		}
		log.Printf("corrupt catalog cache %q, refetching", cacheFile)
	}

	catalog, err := FetchCatalog(client)
	if err != nil {
		return nil, err
	}
	if err := SaveCatalog(cacheFile, catalog); err != nil {
		log.Printf("warning: could not save catalog cache: %v", err)
	}
	return catalog, nil
}

// SaveCatalog persists the catalog to the local cache file as JSON.
func SaveCatalog(cacheFile string, catalog Catalog) error {
	content, err := json.Marshal(catalog)
	if err != nil {
		return err
	}
	return os.WriteFile(cacheFile, content, 0644)
}

// PriceSource returns the current market price of a catalog identifier.
type PriceSource interface {
	CurrentPrice(code string) (decimal.Decimal, error)
}

// CatalogPrices looks prices up on the fund catalog service.
type CatalogPrices struct {
	Client *http.Client
}

// NewCatalogPrices returns a price source backed by the catalog service,
// with responses cached until end of day.
func NewCatalogPrices() *CatalogPrices {
	return &CatalogPrices{Client: daily()}
}

// CurrentPrice fetches the latest price for a fund identifier. The service
// returns price history newest first; the first element is the current price.
// Any transport or payload failure yields ErrPriceUnavailable.
func (p *CatalogPrices) CurrentPrice(code string) (decimal.Decimal, error) {
	if code == "" {
		return decimal.Zero, ErrPriceUnavailable
	}
	addr := fmt.Sprintf("%s/funds-list/%s", CatalogURL(), code)

	var payload any
	if err := jwget(p.Client, addr, &payload); err != nil {
		return decimal.Zero, fmt.Errorf("%w for %s: %v", ErrPriceUnavailable, code, err)
	}

	jval, err := jsonpath.Get("$.data[0].price", payload)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w for %s: %v", ErrPriceUnavailable, code, err)
	}
	// jsonpath may return a list of one answer instead of a single answer.
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}

	switch v := jval.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		price, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w for %s: bad price %q", ErrPriceUnavailable, code, v)
		}
		return price, nil
	default:
		return decimal.Zero, fmt.Errorf("%w for %s: unexpected price %v", ErrPriceUnavailable, code, jval)
	}
}
