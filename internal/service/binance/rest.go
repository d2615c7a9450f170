package binance

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"PairScout/internal/domain/models"
	domservice "PairScout/internal/domain/service"
	"PairScout/internal/service/ratelimit"
	pkgcache "PairScout/pkg/cache"
	xhttp "PairScout/pkg/http"
	"PairScout/pkg/logger"
)

const (
	klinesLimit   = 1000
	fetchAttempts = 3
)

// RestClient implements MarketData against the Binance spot REST API. Calls
// are rate limited and spaced with an inter-request delay to stay inside the
// exchange quota; transient failures retry with backoff.
type RestClient struct {
	http         *xhttp.Client
	limiter      *ratelimit.Limiter
	cache        pkgcache.Service
	baseURL      string
	quoteAsset   string
	minQuoteVol  float64
	maxUniverse  int
	sectors      map[string]string // symbol -> sector
	requestDelay time.Duration
	log          *logger.Logger
}

type RestConfig struct {
	BaseURL        string
	QuoteAsset     string
	MinQuoteVolume float64
	MaxUniverse    int
	Sectors        map[string][]string // sector -> member symbols
	RequestDelay   time.Duration
}

func NewRestClient(client *xhttp.Client, limiter *ratelimit.Limiter, cache pkgcache.Service, cfg RestConfig, log *logger.Logger) domservice.MarketData {
	bySymbol := make(map[string]string)
	for sector, symbols := range cfg.Sectors {
		for _, s := range symbols {
			bySymbol[strings.ToUpper(s)] = sector
		}
	}
	if cache == nil {
		cache = pkgcache.NewMemoryCache()
	}
	return &RestClient{
		http:         client,
		limiter:      limiter,
		cache:        cache,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		quoteAsset:   cfg.QuoteAsset,
		minQuoteVol:  cfg.MinQuoteVolume,
		maxUniverse:  cfg.MaxUniverse,
		sectors:      bySymbol,
		requestDelay: cfg.RequestDelay,
		log:          log,
	}
}

// GetCandles fetches klines for one symbol. Binance returns at most 1000 rows
// per call; the range is paged forward until exhausted.
func (c *RestClient) GetCandles(ctx context.Context, symbol, interval string, from, to time.Time) ([]models.Candle, error) {
	var out []models.Candle
	cursor := from

	for cursor.Before(to) {
		rows, err := c.fetchKlines(ctx, symbol, interval, cursor, to)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			break
		}
		out = append(out, rows...)
		last := rows[len(rows)-1].Bucket
		if !last.After(cursor) {
			break
		}
		cursor = last.Add(time.Millisecond)
		if len(rows) < klinesLimit {
			break
		}
	}
	return out, nil
}

func (c *RestClient) fetchKlines(ctx context.Context, symbol, interval string, from, to time.Time) ([]models.Candle, error) {
	var raw [][]interface{}
	err := c.call(ctx, "klines", &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/api/v3/klines",
		QueryParams: map[string][]string{
			"symbol":    {symbol},
			"interval":  {interval},
			"startTime": {strconv.FormatInt(from.UnixMilli(), 10)},
			"endTime":   {strconv.FormatInt(to.UnixMilli(), 10)},
			"limit":     {strconv.Itoa(klinesLimit)},
		},
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("klines %s: %w", symbol, err)
	}

	out := make([]models.Candle, 0, len(raw))
	for _, row := range raw {
		if len(row) < 6 {
			continue
		}
		openTime, ok := row[0].(float64)
		if !ok {
			continue
		}
		candle := models.Candle{
			Bucket: time.UnixMilli(int64(openTime)).UTC(),
			Symbol: symbol,
			Open:   parsePrice(row[1]),
			High:   parsePrice(row[2]),
			Low:    parsePrice(row[3]),
			Close:  parsePrice(row[4]),
			Volume: parsePrice(row[5]),
		}
		out = append(out, candle)
	}
	return out, nil
}

type ticker24h struct {
	Symbol      string `json:"symbol"`
	LastPrice   string `json:"lastPrice"`
	QuoteVolume string `json:"quoteVolume"`
}

// GetUniverse returns the liquid-asset universe: quote-asset markets above
// the volume floor that belong to a configured sector, largest first. The
// snapshot is cached briefly so repeated lookups within one cycle do not
// re-hit the ticker endpoint.
func (c *RestClient) GetUniverse(ctx context.Context) ([]models.UniverseAsset, error) {
	cacheKey := pkgcache.GenerateKeyWithParams("binance:universe", c.quoteAsset)
	var cached []models.UniverseAsset
	if err := c.cache.Get(ctx, cacheKey, &cached); err == nil && len(cached) > 0 {
		return cached, nil
	}

	var tickers []ticker24h
	err := c.call(ctx, "ticker_24h", &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/api/v3/ticker/24hr",
	}, &tickers)
	if err != nil {
		return nil, fmt.Errorf("ticker 24h: %w", err)
	}

	out := make([]models.UniverseAsset, 0, len(tickers))
	for _, t := range tickers {
		if !strings.HasSuffix(t.Symbol, c.quoteAsset) {
			continue
		}
		sector, ok := c.sectors[t.Symbol]
		if !ok {
			continue
		}
		vol, err := strconv.ParseFloat(t.QuoteVolume, 64)
		if err != nil || vol < c.minQuoteVol {
			continue
		}
		price, _ := strconv.ParseFloat(t.LastPrice, 64)
		out = append(out, models.UniverseAsset{
			Symbol:      t.Symbol,
			Sector:      sector,
			QuoteVolume: vol,
			LastPrice:   price,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].QuoteVolume > out[j].QuoteVolume })
	if c.maxUniverse > 0 && len(out) > c.maxUniverse {
		out = out[:c.maxUniverse]
	}
	if err := c.cache.Set(ctx, cacheKey, out, 5*time.Minute); err != nil {
		c.log.Warn("universe cache set failed", logger.Error(err))
	}
	return out, nil
}

// call sends one request with quota pacing and bounded retry.
func (c *RestClient) call(ctx context.Context, op string, opts *xhttp.RequestOptions, dest interface{}) error {
	var lastErr error
	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
		c.waitQuota(ctx, op)

		if lastErr = c.http.SendAndParse(ctx, opts, dest); lastErr == nil {
			return nil
		}
		c.log.Warn("binance request failed",
			logger.String("op", op),
			logger.Int("attempt", attempt+1),
			logger.Error(lastErr))
	}
	return lastErr
}

func (c *RestClient) waitQuota(ctx context.Context, op string) {
	for !c.limiter.Allow("binance:"+op, 10, 5) {
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.requestDelay):
		}
	}
	if c.requestDelay > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(c.requestDelay):
		}
	}
}

func parsePrice(v interface{}) float64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
