package crawler

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"sjsage522/pricetracker/services/cache"
)

// MockCacheService implements a simple in-memory cache for testing
type MockCacheService struct {
	mu    sync.Mutex
	cache map[string][]byte
}

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{
		cache: make(map[string][]byte),
	}
}

func (m *MockCacheService) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if val, ok := m.cache[key]; ok {
		return val, nil
	}
	return nil, cache.ErrCacheMiss
}

func (m *MockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[key] = value
	return nil
}

func (m *MockCacheService) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, key)
	return nil
}

// MockFetcher returns canned pages keyed by URL
type MockFetcher struct {
	Pages map[string]string
	Err   error
	Calls int
}

func (m *MockFetcher) Fetch(ctx context.Context, url string) (io.Reader, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	page, ok := m.Pages[url]
	if !ok {
		return nil, &mockError{message: "no page for " + url}
	}
	return strings.NewReader(page), nil
}

func (m *MockFetcher) GetName() string {
	return "mock"
}

type mockError struct {
	message string
}

func (e *mockError) Error() string {
	return e.message
}

// productPage is a product page with the shared quantity/sellers row
const productPage = `<html><body>
<h1 class="product-details__name">Scarlet &amp; Violet Booster Box</h1>
<section class="product-details__price-guide">
  <section class="price-guide__points">
    <table>
      <tr>
        <td><span class="price-points__upper__header__title">Market Price</span></td>
        <td><span class="price-points__upper__price">$1,234.56</span></td>
      </tr>
      <tr>
        <td><span>Most Recent Sale</span></td>
        <td><span class="price-points__upper__price">$1,200.00</span></td>
      </tr>
    </table>
    <table>
      <tr>
        <td><span class="text">Listed Median:</span></td>
        <td><span class="price-points__lower__price">$1,250.00</span></td>
      </tr>
      <tr>
        <td><span class="text">Current Quantity:</span></td>
        <td><span class="price-points__lower__price">45</span></td>
        <td><span class="text">Current Sellers:</span></td>
        <td><span class="price-points__lower__price">12</span></td>
      </tr>
    </table>
  </section>
  <section class="sales-data">
    <table>
      <tr>
        <td><span class="text">Total Sold:</span></td>
        <td><span class="sales-data__price">1,020</span></td>
      </tr>
    </table>
  </section>
</section>
</body></html>`

// splitRowsPage keeps quantity and sellers in separate rows
const splitRowsPage = `<html><body>
<h1 class="product-details__name">Paldea Evolved Booster Box</h1>
<section class="price-guide__points">
  <table>
    <tr>
      <td><span class="text">Current Quantity:</span></td>
      <td><span class="price-points__lower__price">7</span></td>
    </tr>
    <tr>
      <td><span class="text">Current Sellers:</span></td>
      <td><span class="price-points__lower__price">3</span></td>
    </tr>
  </table>
</section>
</body></html>`

// noPriceGuidePage has a title but none of the data sections
const noPriceGuidePage = `<html><body>
<h1 class="product-details__name">Obsidian Flames Booster Box</h1>
<div class="product-details__description">Sealed product</div>
</body></html>`

// untitledPage is missing the product title
const untitledPage = `<html><body>
<section class="price-guide__points">
  <table>
    <tr>
      <td><span class="price-points__upper__header__title">Market Price</span></td>
      <td><span class="price-points__upper__price">$99.99</span></td>
    </tr>
  </table>
</section>
</body></html>`
