package minio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/logging"
	"github.com/vitrina-analytics/catalog-insight/pkg/errors"
)

type mockObjectStore struct {
	mock.Mock
}

func (m *mockObjectStore) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *mockObjectStore) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	args := m.Called(ctx, bucketName, objectName, opts)
	return args.Get(0).(minio.ObjectInfo), args.Error(1)
}

func (m *mockObjectStore) FGetObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.GetObjectOptions) error {
	args := m.Called(ctx, bucketName, objectName, filePath, opts)
	return args.Error(0)
}

func newTestExportStore(client ObjectStoreAPI) *ExportStore {
	return &ExportStore{client: client, bucket: "exports", logger: logging.NewNopLogger()}
}

func TestNewExportStore_RequiresEndpointAndBucket(t *testing.T) {
	store, err := NewExportStore(&Config{}, logging.NewNopLogger())
	assert.Nil(t, store)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	store, err = NewExportStore(&Config{Endpoint: "localhost:9000"}, logging.NewNopLogger())
	assert.Nil(t, store)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestNewExportStore_VerifiesBucket(t *testing.T) {
	ctx := context.Background()

	client := &mockObjectStore{}
	client.On("BucketExists", ctx, "exports").Return(true, nil).Once()
	store, err := newExportStore(ctx, client, "exports", logging.NewNopLogger())
	require.NoError(t, err)
	assert.NotNil(t, store)

	client.On("BucketExists", ctx, "missing").Return(false, nil).Once()
	store, err = newExportStore(ctx, client, "missing", logging.NewNopLogger())
	assert.Nil(t, store)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
	assert.Contains(t, err.Error(), "missing")

	client.On("BucketExists", ctx, "exports").Return(false, assert.AnError).Once()
	store, err = newExportStore(ctx, client, "exports", logging.NewNopLogger())
	assert.Nil(t, store)
	assert.True(t, errors.IsCode(err, errors.ErrCodeExternalService))

	client.AssertExpectations(t)
}

func TestFetchToTemp_DownloadsKeepingObjectName(t *testing.T) {
	ctx := context.Background()
	client := &mockObjectStore{}
	store := newTestExportStore(client)

	client.On("StatObject", ctx, "exports", "2024/produse.xlsx", mock.Anything).
		Return(minio.ObjectInfo{Size: 11}, nil).Once()
	client.On("FGetObject", ctx, "exports", "2024/produse.xlsx", mock.AnythingOfType("string"), mock.Anything).
		Run(func(args mock.Arguments) {
			require.NoError(t, os.WriteFile(args.String(3), []byte("sku\nOJA-001"), 0o644))
		}).
		Return(nil).Once()

	path, cleanup, err := store.FetchToTemp(ctx, "", "2024/produse.xlsx")
	require.NoError(t, err)
	require.NotNil(t, cleanup)

	assert.Equal(t, "produse.xlsx", filepath.Base(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sku\nOJA-001", string(data))

	cleanup()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	client.AssertExpectations(t)
}

func TestFetchToTemp_ExplicitBucketOverridesDefault(t *testing.T) {
	ctx := context.Background()
	client := &mockObjectStore{}
	store := newTestExportStore(client)

	client.On("StatObject", ctx, "archive", "comenzi.csv", mock.Anything).
		Return(minio.ObjectInfo{Size: 4}, nil).Once()
	client.On("FGetObject", ctx, "archive", "comenzi.csv", mock.AnythingOfType("string"), mock.Anything).
		Run(func(args mock.Arguments) {
			require.NoError(t, os.WriteFile(args.String(3), []byte("test"), 0o644))
		}).
		Return(nil).Once()

	path, cleanup, err := store.FetchToTemp(ctx, "archive", "comenzi.csv")
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, "comenzi.csv", filepath.Base(path))
	client.AssertExpectations(t)
}

func TestFetchToTemp_MissingObject(t *testing.T) {
	ctx := context.Background()
	client := &mockObjectStore{}
	store := newTestExportStore(client)

	client.On("StatObject", ctx, "exports", "absent.csv", mock.Anything).
		Return(minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey"}).Once()

	path, cleanup, err := store.FetchToTemp(ctx, "", "absent.csv")
	assert.Empty(t, path)
	assert.Nil(t, cleanup)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
	client.AssertNotCalled(t, "FGetObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFetchToTemp_RequiresObjectName(t *testing.T) {
	store := newTestExportStore(&mockObjectStore{})

	_, _, err := store.FetchToTemp(context.Background(), "", "")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestFetchToTemp_DownloadFailureCleansUp(t *testing.T) {
	ctx := context.Background()
	client := &mockObjectStore{}
	store := newTestExportStore(client)

	var attempted string
	client.On("StatObject", ctx, "exports", "produse.csv", mock.Anything).
		Return(minio.ObjectInfo{Size: 9}, nil).Once()
	client.On("FGetObject", ctx, "exports", "produse.csv", mock.AnythingOfType("string"), mock.Anything).
		Run(func(args mock.Arguments) { attempted = args.String(3) }).
		Return(assert.AnError).Once()

	path, cleanup, err := store.FetchToTemp(ctx, "", "produse.csv")
	assert.Empty(t, path)
	assert.Nil(t, cleanup)
	assert.True(t, errors.IsCode(err, errors.ErrCodeExternalService))

	_, statErr := os.Stat(filepath.Dir(attempted))
	assert.True(t, os.IsNotExist(statErr))
}
