package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Column names of the Shopify product export format
const (
	ColHandle          = "Handle"
	ColTitle           = "Title"
	ColBody            = "Body (HTML)"
	ColVendor          = "Vendor"
	ColProductCategory = "Product Category"
	ColType            = "Type"
	ColTags            = "Tags"
	ColPublished       = "Published"
	ColOption1Name     = "Option1 Name"
	ColOption1Value    = "Option1 Value"
	ColOption2Name     = "Option2 Name"
	ColOption2Value    = "Option2 Value"
	ColOption3Name     = "Option3 Name"
	ColOption3Value    = "Option3 Value"
	ColVariantSKU      = "Variant SKU"
	ColVariantPrice    = "Variant Price"
	ColVariantCompare  = "Variant Compare At Price"
	ColVariantQty      = "Variant Inventory Qty"
	ColImageSrc        = "Image Src"
	ColImagePosition   = "Image Position"
	ColImageAlt        = "Image Alt Text"
	ColSEOTitle        = "SEO Title"
	ColSEODescription  = "SEO Description"
)

var (
	optionNameColumns  = [3]string{ColOption1Name, ColOption2Name, ColOption3Name}
	optionValueColumns = [3]string{ColOption1Value, ColOption2Value, ColOption3Value}
)

// shopifyDefaultOption is the placeholder value Shopify writes for products
// without real options.
const shopifyDefaultOption = "Default Title"

// ProductRecord is one logical product assembled from all rows sharing a handle
type ProductRecord struct {
	Handle         string
	Line           int
	Title          string
	Description    string
	Vendor         string
	Category       string
	Tags           []string
	Published      bool
	SEOTitle       string
	SEODescription string
	OptionNames    [3]string
	Variants       []VariantRecord
	Images         []ImageRecord
}

// VariantRecord is a purchasable configuration found in the feed
type VariantRecord struct {
	Line           int
	SKU            string
	Price          int64
	CompareAtPrice int64
	// Stock is nil when the feed carries no inventory quantity
	Stock        *int
	OptionValues [3]string
}

// ImageRecord is a product image found in the feed
type ImageRecord struct {
	URL      string
	AltText  string
	Position int
}

// MinPrice returns the lowest positive variant price
func (p *ProductRecord) MinPrice() (int64, bool) {
	var lowest int64
	found := false
	for _, v := range p.Variants {
		if v.Price <= 0 {
			continue
		}
		if !found || v.Price < lowest {
			lowest = v.Price
			found = true
		}
	}
	return lowest, found
}

// Attributes maps the product's option names to this variant's values.
// Unnamed options fall back to "Option1".."Option3".
func (p *ProductRecord) Attributes(v VariantRecord) map[string]string {
	attrs := make(map[string]string, 3)
	for i, val := range v.OptionValues {
		if val == "" {
			continue
		}
		name := p.OptionNames[i]
		if name == "" {
			name = fmt.Sprintf("Option%d", i+1)
		}
		attrs[name] = val
	}
	return attrs
}

// Name is the display name of the variant built from its option values
func (v VariantRecord) Name() string {
	parts := make([]string, 0, 3)
	for _, val := range v.OptionValues {
		if val != "" {
			parts = append(parts, val)
		}
	}
	if len(parts) == 0 {
		return "Default"
	}
	return strings.Join(parts, " / ")
}

func (v VariantRecord) isDefault() bool {
	return v.SKU == "" && v.OptionValues == [3]string{}
}

// CatalogParser turns a Shopify-style product export into ProductRecords
type CatalogParser struct {
	priceExponent int32
	readerOpts    []ReaderOption
}

// CatalogOption configures a CatalogParser
type CatalogOption func(*CatalogParser)

// WithPriceExponent sets the number of minor-unit digits prices are scaled by,
// e.g. 2 turns "12.50" into 1250. The default 0 keeps whole units.
func WithPriceExponent(exp int32) CatalogOption {
	return func(p *CatalogParser) {
		p.priceExponent = exp
	}
}

// WithReaderOptions passes options through to the underlying TableReader
func WithReaderOptions(opts ...ReaderOption) CatalogOption {
	return func(p *CatalogParser) {
		p.readerOpts = append(p.readerOpts, opts...)
	}
}

// NewCatalogParser creates a new CatalogParser
func NewCatalogParser(opts ...CatalogOption) *CatalogParser {
	p := &CatalogParser{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse groups rows by Handle and returns products in order of first appearance.
// Rows that cannot be parsed as CSV, rows without a handle, and rows that open
// an unseen handle without a title or any variant/image data are skipped.
func (p *CatalogParser) Parse(src io.Reader) ([]ProductRecord, error) {
	table, err := NewTableReader(src, p.readerOpts...)
	if err != nil {
		return nil, err
	}
	if err := table.Require(ColHandle); err != nil {
		return nil, err
	}

	builders := make(map[string]*productBuilder)
	var order []string

	for {
		row, err := table.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			return nil, fmt.Errorf("failed to read catalog: %w", err)
		}
		if row.IsEmpty() {
			continue
		}

		handle := row.Get(ColHandle)
		if handle == "" {
			continue
		}
		b, seen := builders[handle]
		if !seen {
			if row.Get(ColTitle) == "" && !hasVariantData(row) && !hasImageData(row) {
				continue
			}
			b = newProductBuilder(handle, row.Line)
			builders[handle] = b
			order = append(order, handle)
		}
		b.apply(row, p.priceExponent)
	}

	records := make([]ProductRecord, 0, len(order))
	for _, h := range order {
		records = append(records, builders[h].build())
	}
	return records, nil
}

// Statistics parses the source and summarizes it without persisting anything
func (p *CatalogParser) Statistics(src io.Reader) (Statistics, error) {
	records, err := p.Parse(src)
	if err != nil {
		return Statistics{}, err
	}
	return ComputeStatistics(records), nil
}

func hasVariantData(row *Row) bool {
	return row.Get(ColVariantSKU) != "" || row.Get(ColVariantPrice) != ""
}

func hasImageData(row *Row) bool {
	return row.Get(ColImageSrc) != ""
}

type imageCandidate struct {
	ImageRecord
	seq int
}

type productBuilder struct {
	record     ProductRecord
	hasBase    bool
	variants   []VariantRecord
	skuSeen    map[string]struct{}
	optionSeen map[[3]string]struct{}
	images     []imageCandidate
	urlSeen    map[string]struct{}
}

func newProductBuilder(handle string, line int) *productBuilder {
	return &productBuilder{
		record:     ProductRecord{Handle: handle, Line: line, Published: true},
		skuSeen:    make(map[string]struct{}),
		optionSeen: make(map[[3]string]struct{}),
		urlSeen:    make(map[string]struct{}),
	}
}

func (b *productBuilder) apply(row *Row, priceExponent int32) {
	if !b.hasBase && row.Get(ColTitle) != "" {
		b.applyBase(row)
	}
	for i, col := range optionNameColumns {
		if b.record.OptionNames[i] == "" {
			if name := row.Get(col); name != "" && name != "Title" {
				b.record.OptionNames[i] = name
			}
		}
	}
	b.addVariant(row, priceExponent)
	b.addImage(row)
}

func (b *productBuilder) applyBase(row *Row) {
	b.hasBase = true
	r := &b.record
	r.Title = row.Get(ColTitle)
	r.Description = row.Get(ColBody)
	r.Vendor = row.Get(ColVendor)
	r.Category = lastCategorySegment(row.Get(ColProductCategory))
	if r.Category == "" {
		r.Category = row.Get(ColType)
	}
	r.Tags = splitTags(row.Get(ColTags))
	if v := row.Get(ColPublished); v != "" {
		r.Published = parseBool(v)
	}
	r.SEOTitle = row.Get(ColSEOTitle)
	r.SEODescription = row.Get(ColSEODescription)
}

func (b *productBuilder) addVariant(row *Row, priceExponent int32) {
	if !hasVariantData(row) {
		return
	}
	price, ok := parseMinorUnits(row.Get(ColVariantPrice), priceExponent)
	if !ok || price <= 0 {
		return
	}

	v := VariantRecord{
		Line:  row.Line,
		SKU:   row.Get(ColVariantSKU),
		Price: price,
	}
	for i, col := range optionValueColumns {
		val := row.Get(col)
		if val == shopifyDefaultOption {
			val = ""
		}
		v.OptionValues[i] = val
	}
	if cmp, ok := parseMinorUnits(row.Get(ColVariantCompare), priceExponent); ok {
		v.CompareAtPrice = cmp
	}
	if qty, err := strconv.Atoi(row.Get(ColVariantQty)); err == nil && qty >= 0 {
		v.Stock = &qty
	}

	if v.SKU != "" {
		if _, dup := b.skuSeen[v.SKU]; dup {
			return
		}
		b.skuSeen[v.SKU] = struct{}{}
	} else if _, dup := b.optionSeen[v.OptionValues]; dup {
		return
	}
	b.optionSeen[v.OptionValues] = struct{}{}
	b.variants = append(b.variants, v)
}

func (b *productBuilder) addImage(row *Row) {
	url := row.Get(ColImageSrc)
	if url == "" {
		return
	}
	if _, dup := b.urlSeen[url]; dup {
		return
	}
	b.urlSeen[url] = struct{}{}

	seq := len(b.images) + 1
	pos, err := strconv.Atoi(row.Get(ColImagePosition))
	if err != nil || pos <= 0 {
		pos = seq
	}
	b.images = append(b.images, imageCandidate{
		ImageRecord: ImageRecord{URL: url, AltText: row.Get(ColImageAlt), Position: pos},
		seq:         seq,
	})
}

// build drops the implicit default variant when explicit variants exist and
// renumbers images 1..n in ascending position order.
func (b *productBuilder) build() ProductRecord {
	r := b.record

	explicit := false
	for _, v := range b.variants {
		if !v.isDefault() {
			explicit = true
			break
		}
	}
	r.Variants = make([]VariantRecord, 0, len(b.variants))
	for _, v := range b.variants {
		if explicit && v.isDefault() {
			continue
		}
		r.Variants = append(r.Variants, v)
	}

	sort.SliceStable(b.images, func(i, j int) bool {
		if b.images[i].Position != b.images[j].Position {
			return b.images[i].Position < b.images[j].Position
		}
		return b.images[i].seq < b.images[j].seq
	})
	r.Images = make([]ImageRecord, len(b.images))
	for i, img := range b.images {
		img.Position = i + 1
		r.Images[i] = img.ImageRecord
	}
	return r
}

// parseMinorUnits parses a decimal price and scales it to minor units,
// rounding half away from zero.
func parseMinorUnits(s string, exponent int32) (int64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	return d.Shift(exponent).Round(0).IntPart(), true
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// lastCategorySegment reduces a taxonomy path such as
// "Apparel & Accessories > Clothing > Shirts" to its leaf.
func lastCategorySegment(s string) string {
	if i := strings.LastIndex(s, ">"); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return strings.TrimSpace(s)
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1", "active", "published":
		return true
	}
	return false
}
