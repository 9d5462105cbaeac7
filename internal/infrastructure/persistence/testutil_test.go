package persistence

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newSQLiteDB opens a migrated file-backed sqlite database with a single connection
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "market.db") + "?_busy_timeout=5000&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// newPostgresMock returns a GORM handle speaking the postgres dialect over sqlmock
func newPostgresMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return db, mock, mockDB
}

type catalogFixture struct {
	user     *identity.User
	address  *identity.Address
	vendor   *catalog.Vendor
	category *catalog.Category
	product  *catalog.Product
	variant  *catalog.Variant
}

// seedCatalog inserts an approved product with one variant holding stock units
func seedCatalog(t *testing.T, db *gorm.DB, stock int) catalogFixture {
	t.Helper()
	ctx := t.Context()

	user, err := identity.NewUser("buyer-"+uuid.NewString()[:8]+"@example.com", "Ada", "Buyer")
	require.NoError(t, err)
	require.NoError(t, NewGormUserRepository(db).Create(ctx, user))

	address := &identity.Address{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     user.ID,
		FullName:   "Ada Buyer",
		Line1:      "KN 5 Rd",
		City:       "Kigali",
		Country:    "RW",
	}
	require.NoError(t, NewGormAddressRepository(db).Create(ctx, address))

	vendor, err := catalog.NewVendor(user.ID, "Vendor "+uuid.NewString()[:8])
	require.NoError(t, err)
	require.NoError(t, NewGormVendorRepository(db).Create(ctx, vendor))

	category, err := catalog.NewCategory("Cat "+uuid.NewString()[:8], "")
	require.NoError(t, err)
	require.NoError(t, NewGormCategoryRepository(db).Create(ctx, category))

	product, err := catalog.NewProduct(vendor.ID, category.ID, "Shirt "+uuid.NewString()[:8], "SKU-"+uuid.NewString()[:8], 10000)
	require.NoError(t, err)
	require.NoError(t, product.Approve())
	require.NoError(t, NewGormProductRepository(db).Create(ctx, product))

	variant, err := catalog.NewVariant(product.ID, "Red", "V-"+uuid.NewString()[:8], 10000, stock, map[string]string{"Color": "Red"})
	require.NoError(t, err)
	require.NoError(t, NewGormVariantRepository(db).Create(ctx, variant))

	return catalogFixture{user: user, address: address, vendor: vendor, category: category, product: product, variant: variant}
}
