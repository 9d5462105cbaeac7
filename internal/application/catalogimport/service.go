package catalogimport

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/csvimport"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Placeholder owner and catalog entries used when a feed row names none
const (
	FallbackVendorName   = "Imported Products"
	FallbackCategoryName = "General"
	FallbackOwnerEmail   = "imports@marketplace.local"
)

// DefaultStock is the stock given to the synthesized variant of a product
// that had no variant rows
const DefaultStock = 100

// UploadStore holds uploaded import files until they have been processed
type UploadStore interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Repositories groups the stores the pipeline writes to
type Repositories struct {
	Users      identity.UserRepository
	Vendors    catalog.VendorRepository
	Categories catalog.CategoryRepository
	Products   catalog.ProductRepository
	Variants   catalog.VariantRepository
	Images     catalog.ImageRepository
}

// Config tunes the pipeline
type Config struct {
	DefaultStock int
	MaxErrors    int
}

// Service persists parsed catalog feeds. Each product is written on its own;
// a failure on one product never undoes the ones imported before it.
type Service struct {
	repos   Repositories
	store   UploadStore
	parser  *csvimport.CatalogParser
	events  shared.EventPublisher
	cfg     Config
	metrics *telemetry.BusinessMetrics
}

// NewService creates a new catalog import service
func NewService(repos Repositories, store UploadStore, parser *csvimport.CatalogParser, events shared.EventPublisher, cfg Config) *Service {
	if parser == nil {
		parser = csvimport.NewCatalogParser()
	}
	if events == nil {
		events = shared.NoopEventPublisher{}
	}
	if cfg.DefaultStock <= 0 {
		cfg.DefaultStock = DefaultStock
	}
	if cfg.MaxErrors <= 0 {
		cfg.MaxErrors = csvimport.DefaultMaxReportedErrors
	}
	return &Service{repos: repos, store: store, parser: parser, events: events, cfg: cfg}
}

// SetBusinessMetrics sets the business metrics for imported products
func (s *Service) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.metrics = bm
}

// fallbacks are the catalog entries used for records without their own.
// When pinned is set every record goes to vendor, whatever its Vendor column says.
type fallbacks struct {
	vendor   *catalog.Vendor
	category *catalog.Category
	pinned   bool
}

// Import parses the uploaded file stored under key and writes its products.
// The upload is deleted once processing ends, whatever the outcome.
func (s *Service) Import(ctx context.Context, key string, by Uploader) (_ *Result, err error) {
	ctx, span := telemetry.StartSpan(ctx, "catalog.import",
		attribute.String("upload", key),
		attribute.String("uploader.role", string(by.Role)))
	defer func() { telemetry.End(span, err) }()
	log := logger.L(ctx).With(zap.String("upload", key), zap.String("uploader", by.UserID.String()))
	defer s.discard(ctx, key)

	owner, err := s.uploaderVendor(ctx, by)
	if err != nil {
		return nil, err
	}

	records, err := s.parse(ctx, key)
	if err != nil {
		return nil, err
	}

	fb, err := s.ensureFallbacks(ctx, owner)
	if err != nil {
		return nil, err
	}

	errs := csvimport.NewErrorLog(s.cfg.MaxErrors)
	result := &Result{TotalProductsProcessed: len(records)}
	for i := range records {
		if err := ctx.Err(); err != nil {
			log.Warn("catalog import interrupted",
				zap.Int("processed", i),
				zap.Int("total", len(records)),
				zap.Error(err))
			return nil, err
		}
		s.importProduct(ctx, &records[i], fb, result, errs)
	}
	result.Errors = errs.Messages()
	result.TotalErrors = errs.Total()
	result.Truncated = errs.Truncated()
	span.SetAttributes(
		attribute.Int("catalog.products_seen", result.TotalProductsProcessed),
		attribute.Int("catalog.imported_products", result.ImportedProducts),
		attribute.Int("catalog.errors", result.TotalErrors),
	)

	log.Info("catalog import finished",
		zap.Int("products_seen", result.TotalProductsProcessed),
		zap.Int("imported_products", result.ImportedProducts),
		zap.Int("imported_variants", result.ImportedVariants),
		zap.Int("imported_images", result.ImportedImages),
		zap.Int("errors", result.TotalErrors))
	s.metrics.RecordImport(ctx, result.ImportedProducts, result.TotalProductsProcessed-result.ImportedProducts)

	event := catalog.NewCatalogImportedEvent(key, result.TotalProductsProcessed, result.ImportedProducts,
		result.ImportedVariants, result.ImportedImages, result.TotalErrors)
	if err := s.events.Publish(ctx, event); err != nil {
		log.Warn("failed to publish catalog import event", zap.Error(err))
	}
	return result, nil
}

// Preview reports what the uploaded file contains without writing anything.
// The upload is deleted afterwards.
func (s *Service) Preview(ctx context.Context, key string) (*csvimport.Statistics, error) {
	defer s.discard(ctx, key)

	records, err := s.parse(ctx, key)
	if err != nil {
		return nil, err
	}
	stats := csvimport.ComputeStatistics(records)
	return &stats, nil
}

func (s *Service) parse(ctx context.Context, key string) ([]csvimport.ProductRecord, error) {
	rc, err := s.store.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open upload %q: %w", key, err)
	}
	defer rc.Close()

	records, err := s.parser.Parse(rc)
	if err != nil {
		return nil, shared.WrapDomainError(shared.CodeInvalidInput, "Import file could not be parsed", err)
	}
	return records, nil
}

// discard removes the upload. It runs on a context that survives the
// request being cancelled.
func (s *Service) discard(ctx context.Context, key string) {
	if err := s.store.Delete(context.WithoutCancel(ctx), key); err != nil {
		logger.L(ctx).Warn("failed to delete import upload", zap.String("upload", key), zap.Error(err))
	}
}

// uploaderVendor returns the store a vendor upload is pinned to. Admin
// uploads return nil and resolve vendors per record.
func (s *Service) uploaderVendor(ctx context.Context, by Uploader) (*catalog.Vendor, error) {
	switch by.Role {
	case identity.RoleAdmin:
		return nil, nil
	case identity.RoleVendor:
		vendor, err := s.repos.Vendors.FindByUserID(ctx, by.UserID)
		if err != nil {
			if shared.IsNotFound(err) {
				return nil, shared.NewDomainError(shared.CodeForbidden, "No vendor store is registered for this account")
			}
			return nil, fmt.Errorf("find uploader vendor: %w", err)
		}
		return vendor, nil
	default:
		return nil, shared.NewDomainError(shared.CodeForbidden, "Only vendors and admins can import products")
	}
}

// ensureFallbacks finds or creates the placeholder category and, unless the
// upload is pinned to owner, the placeholder vendor and its owner
func (s *Service) ensureFallbacks(ctx context.Context, owner *catalog.Vendor) (*fallbacks, error) {
	category, err := s.findOrCreateCategory(ctx, FallbackCategoryName)
	if err != nil {
		return nil, fmt.Errorf("ensure fallback category: %w", err)
	}
	if owner != nil {
		return &fallbacks{vendor: owner, category: category, pinned: true}, nil
	}

	vendor, err := s.repos.Vendors.FindByBusinessName(ctx, FallbackVendorName)
	if err != nil {
		if !shared.IsNotFound(err) {
			return nil, fmt.Errorf("find fallback vendor: %w", err)
		}
		vendor, err = s.createFallbackVendor(ctx)
		if err != nil {
			return nil, err
		}
	}
	return &fallbacks{vendor: vendor, category: category}, nil
}

func (s *Service) createFallbackVendor(ctx context.Context) (*catalog.Vendor, error) {
	owner, err := s.repos.Users.FindByEmail(ctx, FallbackOwnerEmail)
	if err != nil {
		if !shared.IsNotFound(err) {
			return nil, fmt.Errorf("find fallback owner: %w", err)
		}
		owner, err = identity.NewUser(FallbackOwnerEmail, "Catalog", "Import")
		if err != nil {
			return nil, err
		}
		owner.Role = identity.RoleVendor
		if err := s.repos.Users.Create(ctx, owner); err != nil {
			return nil, fmt.Errorf("create fallback owner: %w", err)
		}
	}

	vendor, err := catalog.NewVendor(owner.ID, FallbackVendorName)
	if err != nil {
		return nil, err
	}
	vendor.Verify()
	if err := s.repos.Vendors.Create(ctx, vendor); err != nil {
		if !shared.IsAlreadyExists(err) {
			return nil, fmt.Errorf("create fallback vendor: %w", err)
		}
		// another import created it concurrently
		return s.repos.Vendors.FindByBusinessName(ctx, FallbackVendorName)
	}
	return vendor, nil
}

func (s *Service) findOrCreateCategory(ctx context.Context, name string) (*catalog.Category, error) {
	category, err := s.repos.Categories.FindByName(ctx, name)
	if err == nil {
		return category, nil
	}
	if !shared.IsNotFound(err) {
		return nil, err
	}
	category, err = catalog.NewCategory(name, "")
	if err != nil {
		return nil, err
	}
	if err := s.repos.Categories.Create(ctx, category); err != nil {
		if shared.IsAlreadyExists(err) {
			return s.repos.Categories.FindByName(ctx, name)
		}
		return nil, err
	}
	return category, nil
}

func (s *Service) resolveVendor(ctx context.Context, name string, fb *fallbacks) *catalog.Vendor {
	if fb.pinned || name == "" || strings.EqualFold(name, FallbackVendorName) {
		return fb.vendor
	}
	vendor, err := s.repos.Vendors.FindByBusinessName(ctx, name)
	if err != nil {
		if !shared.IsNotFound(err) {
			logger.L(ctx).Warn("vendor lookup failed, using fallback vendor", zap.String("vendor", name), zap.Error(err))
		}
		return fb.vendor
	}
	return vendor
}

// importProduct writes one record. Failures are recorded in errs and never
// returned, so the batch keeps going.
func (s *Service) importProduct(ctx context.Context, rec *csvimport.ProductRecord, fb *fallbacks, result *Result, errs *csvimport.ErrorLog) {
	label := fmt.Sprintf("line %d (%s)", rec.Line, rec.Handle)
	if strings.TrimSpace(rec.Title) == "" {
		errs.Addf("%s: missing title", label)
		return
	}

	exists, err := s.repos.Products.ExistsByName(ctx, rec.Title)
	if err != nil {
		errs.Addf("%q: %v", rec.Title, err)
		return
	}
	if exists {
		errs.Addf("%q: already exists, skipped", rec.Title)
		return
	}

	category := fb.category
	if name := strings.TrimSpace(rec.Category); name != "" {
		category, err = s.findOrCreateCategory(ctx, name)
		if err != nil {
			errs.Addf("%q: category %q: %v", rec.Title, name, err)
			return
		}
	}
	vendor := s.resolveVendor(ctx, rec.Vendor, fb)

	basePrice, ok := rec.MinPrice()
	if !ok {
		errs.Addf("%q: no valid price", rec.Title)
		return
	}

	skuBase := strings.ToUpper(rec.Handle)
	product, err := catalog.NewProduct(vendor.ID, category.ID, rec.Title, skuBase, basePrice)
	if err != nil {
		errs.Addf("%q: %v", rec.Title, err)
		return
	}
	product.Description = rec.Description
	product.Tags = rec.Tags
	product.SEOTitle = rec.SEOTitle
	product.SEODescription = rec.SEODescription
	if err := product.Approve(); err != nil {
		errs.Addf("%q: %v", rec.Title, err)
		return
	}
	if err := s.repos.Products.Create(ctx, product); err != nil {
		errs.Addf("%q: %v", rec.Title, err)
		return
	}
	result.ImportedProducts++

	for _, img := range rec.Images {
		image, err := catalog.NewImage(product.ID, img.URL, img.AltText, img.Position)
		if err == nil {
			err = s.repos.Images.Create(ctx, image)
		}
		if err != nil {
			errs.Addf("%q: image %s: %v", rec.Title, img.URL, err)
			continue
		}
		result.ImportedImages++
	}

	if len(rec.Variants) == 0 {
		s.createVariant(ctx, rec.Title, product.ID, "Default", skuBase+"-DEFAULT", basePrice, s.cfg.DefaultStock, nil, result, errs)
		return
	}
	for i, v := range rec.Variants {
		sku := v.SKU
		if sku == "" {
			sku = fmt.Sprintf("%s-%d", skuBase, i+1)
		}
		stock := s.cfg.DefaultStock
		if v.Stock != nil {
			stock = *v.Stock
		}
		s.createVariant(ctx, rec.Title, product.ID, v.Name(), sku, v.Price, stock, rec.Attributes(v), result, errs)
	}
}

func (s *Service) createVariant(ctx context.Context, title string, productID uuid.UUID, name, sku string, price int64, stock int, attrs map[string]string, result *Result, errs *csvimport.ErrorLog) {
	variant, err := catalog.NewVariant(productID, name, sku, price, stock, attrs)
	if err == nil {
		err = s.repos.Variants.Create(ctx, variant)
	}
	if err != nil {
		errs.Addf("%q: variant %s: %v", title, sku, err)
		return
	}
	result.ImportedVariants++
}
