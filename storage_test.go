package bucketry_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/bucketry/bucketry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type SpyBackend struct {
	mock.Mock
}

func (b *SpyBackend) Put(ctx context.Context, bucket, key string, body io.Reader, meta bucketry.ObjectMetadata) error {
	args := b.Called(ctx, bucket, key, body, meta)
	return args.Error(0)
}

func (b *SpyBackend) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	args := b.Called(ctx, bucket, key)
	if rc := args.Get(0); rc != nil {
		return rc.(io.ReadCloser), args.Error(1)
	}
	return nil, args.Error(1)
}

func (b *SpyBackend) Head(ctx context.Context, bucket, key string) (bucketry.ObjectInfo, error) {
	args := b.Called(ctx, bucket, key)
	return args.Get(0).(bucketry.ObjectInfo), args.Error(1)
}

func (b *SpyBackend) Delete(ctx context.Context, bucket, key string) error {
	args := b.Called(ctx, bucket, key)
	return args.Error(0)
}

func (b *SpyBackend) Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string, meta *bucketry.ObjectMetadata) error {
	args := b.Called(ctx, srcBucket, srcKey, dstBucket, dstKey, meta)
	return args.Error(0)
}

func (b *SpyBackend) List(ctx context.Context, bucket, prefix, delimiter, token string, max int32) (bucketry.ListPage, error) {
	args := b.Called(ctx, bucket, prefix, delimiter, token, max)
	return args.Get(0).(bucketry.ListPage), args.Error(1)
}

func (b *SpyBackend) SignURL(ctx context.Context, req bucketry.SignRequest) (string, error) {
	args := b.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func newStorage(t *testing.T, mutate func(*bucketry.Settings)) (*bucketry.Storage, *SpyBackend) {
	t.Helper()

	settings := bucketry.DefaultSettings()
	if mutate != nil {
		mutate(&settings)
	}

	backend := new(SpyBackend)
	backends := make(map[string]bucketry.Backend, len(settings.Endpoints))
	for scheme := range settings.Endpoints {
		backends[scheme] = backend
	}

	storage, err := bucketry.NewStorage(settings, backends)
	require.NoError(t, err)
	return storage, backend
}

func TestNewStorage(t *testing.T) {
	t.Run("missing backend for scheme", func(t *testing.T) {
		settings := bucketry.DefaultSettings()
		settings.Endpoints["s3-minio"] = bucketry.Endpoints{EndpointURL: "http://minio:9000"}

		_, err := bucketry.NewStorage(settings, map[string]bucketry.Backend{"s3": new(SpyBackend)})
		assert.ErrorContains(t, err, "no backend for scheme")
	})

	t.Run("invalid settings", func(t *testing.T) {
		settings := bucketry.DefaultSettings()
		settings.MaxAge = 0

		_, err := bucketry.NewStorage(settings, map[string]bucketry.Backend{"s3": new(SpyBackend)})
		assert.Error(t, err)
	})
}

func TestStorage_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path with overwrite", func(t *testing.T) {
		storage, backend := newStorage(t, func(s *bucketry.Settings) {
			s.FileOverwrite = true
		})
		content := bytes.NewReader([]byte("hello"))

		backend.On("Put", ctx, "bucket", "a.txt", content, mock.AnythingOfType("bucketry.ObjectMetadata")).Return(nil)

		name, err := storage.Save(ctx, "s3://bucket/a.txt", content)
		require.NoError(t, err)
		assert.Equal(t, "s3://bucket/a.txt", name)
		backend.AssertExpectations(t)
		backend.AssertNotCalled(t, "Head")
	})

	t.Run("key prefix applied to object key only", func(t *testing.T) {
		storage, backend := newStorage(t, func(s *bucketry.Settings) {
			s.FileOverwrite = true
			s.KeyPrefix = "uploads"
		})
		content := bytes.NewReader([]byte("hello"))

		backend.On("Put", ctx, "bucket", "uploads/a.txt", content, mock.AnythingOfType("bucketry.ObjectMetadata")).Return(nil)

		name, err := storage.Save(ctx, "s3://bucket/a.txt", content)
		require.NoError(t, err)
		assert.Equal(t, "s3://bucket/a.txt", name, "stored name stays unprefixed")
		backend.AssertExpectations(t)
	})

	t.Run("collision avoidance returns an alternative name", func(t *testing.T) {
		storage, backend := newStorage(t, nil)
		content := bytes.NewReader([]byte("hello"))

		backend.On("Head", ctx, "bucket", "a.txt").Return(bucketry.ObjectInfo{}, nil).Once()
		backend.On("Head", ctx, "bucket", mock.AnythingOfType("string")).Return(bucketry.ObjectInfo{}, bucketry.ErrNotFound).Once()
		backend.On("Put", ctx, "bucket", mock.AnythingOfType("string"), content, mock.AnythingOfType("bucketry.ObjectMetadata")).Return(nil)

		name, err := storage.Save(ctx, "s3://bucket/a.txt", content)
		require.NoError(t, err)
		assert.NotEqual(t, "s3://bucket/a.txt", name)
		backend.AssertExpectations(t)
	})

	t.Run("read-only mode blocks before any backend call", func(t *testing.T) {
		storage, backend := newStorage(t, func(s *bucketry.Settings) {
			s.ReadOnly = true
		})

		_, err := storage.Save(ctx, "s3://bucket/a.txt", bytes.NewReader(nil))
		assert.ErrorIs(t, err, bucketry.ErrReadOnly)
		backend.AssertNotCalled(t, "Put")
		backend.AssertNotCalled(t, "Head")
	})

	t.Run("unknown scheme fails before any backend call", func(t *testing.T) {
		storage, backend := newStorage(t, nil)

		_, err := storage.Save(ctx, "gcs://bucket/a.txt", bytes.NewReader(nil))
		assert.ErrorIs(t, err, bucketry.ErrUnknownScheme)
		backend.AssertNotCalled(t, "Put")
	})

	t.Run("invalid key rejected", func(t *testing.T) {
		storage, _ := newStorage(t, nil)

		_, err := storage.Save(ctx, "s3://bucket/a/../b.txt", bytes.NewReader(nil))
		assert.ErrorIs(t, err, bucketry.ErrInvalidReference)
	})
}

func TestStorage_URL(t *testing.T) {
	ctx := context.Background()

	t.Run("public url when bucket auth disabled", func(t *testing.T) {
		storage, backend := newStorage(t, func(s *bucketry.Settings) {
			s.Endpoints["s3"] = bucketry.Endpoints{EndpointURL: "https://s3.example.com"}
			s.AddressingStyle = bucketry.AddressingPath
		})

		got, err := storage.URL(ctx, "s3://bucket/a.txt", bucketry.URLOptions{})
		require.NoError(t, err)
		assert.Equal(t, "https://s3.example.com/bucket/a.txt", got)
		backend.AssertNotCalled(t, "SignURL")
	})

	t.Run("signed url forwards extra params", func(t *testing.T) {
		storage, backend := newStorage(t, func(s *bucketry.Settings) {
			s.BucketAuth = true
		})

		backend.On("SignURL", ctx, mock.MatchedBy(func(req bucketry.SignRequest) bool {
			return req.Params["VersionId"] == "v1" && req.Method == bucketry.MethodGetObject
		})).Return("https://signed", nil)

		got, err := storage.URL(ctx, "s3://bucket/a.txt", bucketry.URLOptions{
			Params: map[string]string{"VersionId": "v1"},
		})
		require.NoError(t, err)
		assert.Equal(t, "https://signed", got)
		backend.AssertExpectations(t)
	})

	t.Run("default expiry comes from max age", func(t *testing.T) {
		storage, backend := newStorage(t, func(s *bucketry.Settings) {
			s.BucketAuth = true
		})

		backend.On("SignURL", ctx, mock.MatchedBy(func(req bucketry.SignRequest) bool {
			return req.Expires == bucketry.DefaultSettings().MaxAge
		})).Return("https://signed", nil)

		_, err := storage.URL(ctx, "s3://bucket/a.txt", bucketry.URLOptions{})
		require.NoError(t, err)
		backend.AssertExpectations(t)
	})

	t.Run("put method produces a presigned upload url", func(t *testing.T) {
		storage, backend := newStorage(t, nil)

		backend.On("SignURL", ctx, mock.MatchedBy(func(req bucketry.SignRequest) bool {
			return req.Method == bucketry.MethodPutObject
		})).Return("https://upload", nil)

		got, err := storage.URL(ctx, "s3://bucket/a.txt", bucketry.URLOptions{Method: bucketry.MethodPutObject})
		require.NoError(t, err)
		assert.Equal(t, "https://upload", got)
		backend.AssertExpectations(t)
	})

	t.Run("signed url uses the prefixed object key", func(t *testing.T) {
		storage, backend := newStorage(t, func(s *bucketry.Settings) {
			s.BucketAuth = true
			s.KeyPrefix = "uploads"
		})

		backend.On("SignURL", ctx, mock.MatchedBy(func(req bucketry.SignRequest) bool {
			return req.Key == "uploads/a.txt"
		})).Return("https://signed", nil)

		_, err := storage.URL(ctx, "s3://bucket/a.txt", bucketry.URLOptions{})
		require.NoError(t, err)
		backend.AssertExpectations(t)
	})

	t.Run("invalid client method", func(t *testing.T) {
		storage, _ := newStorage(t, nil)

		_, err := storage.URL(ctx, "s3://bucket/a.txt", bucketry.URLOptions{Method: "list_objects"})
		assert.ErrorContains(t, err, "invalid client method")
	})
}

func TestStorage_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes the prefixed key", func(t *testing.T) {
		storage, backend := newStorage(t, func(s *bucketry.Settings) {
			s.KeyPrefix = "uploads"
		})

		backend.On("Delete", ctx, "bucket", "uploads/a.txt").Return(nil)

		err := storage.Delete(ctx, "s3://bucket/a.txt")
		require.NoError(t, err)
		backend.AssertExpectations(t)
	})

	t.Run("read-only mode blocks", func(t *testing.T) {
		storage, backend := newStorage(t, func(s *bucketry.Settings) {
			s.ReadOnly = true
		})

		err := storage.Delete(ctx, "s3://bucket/a.txt")
		assert.ErrorIs(t, err, bucketry.ErrReadOnly)
		backend.AssertNotCalled(t, "Delete")
	})
}

func TestStorage_Exists(t *testing.T) {
	ctx := context.Background()

	t.Run("object found", func(t *testing.T) {
		storage, backend := newStorage(t, nil)
		backend.On("Head", ctx, "bucket", "a.txt").Return(bucketry.ObjectInfo{}, nil)

		ok, err := storage.Exists(ctx, "s3://bucket/a.txt")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("missing object falls back to directory probe", func(t *testing.T) {
		storage, backend := newStorage(t, nil)
		backend.On("Head", ctx, "bucket", "docs").Return(bucketry.ObjectInfo{}, bucketry.ErrNotFound)
		backend.On("List", ctx, "bucket", "docs/", "", "", int32(1)).Return(bucketry.ListPage{Keys: []string{"docs/a.txt"}}, nil)

		ok, err := storage.Exists(ctx, "s3://bucket/docs")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("missing entirely", func(t *testing.T) {
		storage, backend := newStorage(t, nil)
		backend.On("Head", ctx, "bucket", "nope.txt").Return(bucketry.ObjectInfo{}, bucketry.ErrNotFound)
		backend.On("List", ctx, "bucket", "nope.txt/", "", "", int32(1)).Return(bucketry.ListPage{}, nil)

		ok, err := storage.Exists(ctx, "s3://bucket/nope.txt")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("trailing slash probes by prefix", func(t *testing.T) {
		storage, backend := newStorage(t, nil)
		backend.On("List", ctx, "bucket", "docs/", "", "", int32(1)).Return(bucketry.ListPage{Keys: []string{"docs/a.txt"}}, nil)

		ok, err := storage.Exists(ctx, "s3://bucket/docs/")
		require.NoError(t, err)
		assert.True(t, ok)
		backend.AssertNotCalled(t, "Head")
	})
}

func TestStorage_Size(t *testing.T) {
	ctx := context.Background()

	t.Run("plain object", func(t *testing.T) {
		storage, backend := newStorage(t, nil)
		backend.On("Head", ctx, "bucket", "a.txt").Return(bucketry.ObjectInfo{ContentLength: 42}, nil)

		n, err := storage.Size(ctx, "s3://bucket/a.txt")
		require.NoError(t, err)
		assert.Equal(t, int64(42), n)
	})

	t.Run("gzip object reports uncompressed size", func(t *testing.T) {
		storage, backend := newStorage(t, nil)
		backend.On("Head", ctx, "bucket", "a.txt").Return(bucketry.ObjectInfo{
			ContentLength:   10,
			ContentEncoding: "gzip",
			Metadata:        map[string]string{"uncompressed_size": "99"},
		}, nil)

		n, err := storage.Size(ctx, "s3://bucket/a.txt")
		require.NoError(t, err)
		assert.Equal(t, int64(99), n)
	})
}

func TestStorage_Rename(t *testing.T) {
	ctx := context.Background()

	t.Run("copy then delete", func(t *testing.T) {
		storage, backend := newStorage(t, nil)

		backend.On("Copy", ctx, "bucket", "a.txt", "bucket", "b.txt", (*bucketry.ObjectMetadata)(nil)).Return(nil)
		backend.On("Delete", ctx, "bucket", "a.txt").Return(nil)

		err := storage.Rename(ctx, "s3://bucket/a.txt", "s3://bucket/b.txt")
		require.NoError(t, err)
		backend.AssertExpectations(t)
	})

	t.Run("read-only mode blocks", func(t *testing.T) {
		storage, backend := newStorage(t, func(s *bucketry.Settings) {
			s.ReadOnly = true
		})

		err := storage.Rename(ctx, "s3://bucket/a.txt", "s3://bucket/b.txt")
		assert.ErrorIs(t, err, bucketry.ErrReadOnly)
		backend.AssertNotCalled(t, "Copy")
	})
}

func TestStorage_Listdir(t *testing.T) {
	ctx := context.Background()

	storage, backend := newStorage(t, nil)
	backend.On("List", ctx, "bucket", "docs/", "/", "", int32(0)).Return(bucketry.ListPage{
		Keys:     []string{"docs/a.txt", "docs/b.txt"},
		Prefixes: []string{"docs/sub/"},
	}, nil)

	dirs, files, err := storage.Listdir(ctx, "s3://bucket/docs")
	require.NoError(t, err)
	assert.Equal(t, []string{"sub"}, dirs)
	assert.Equal(t, []string{"a.txt", "b.txt"}, files)
}

func TestStorage_Resync(t *testing.T) {
	ctx := context.Background()

	t.Run("reapplies current metadata via self copy", func(t *testing.T) {
		storage, backend := newStorage(t, func(s *bucketry.Settings) {
			s.ContentDisposition = bucketry.Static("attachment")
		})

		backend.On("Head", ctx, "bucket", "a.txt").Return(bucketry.ObjectInfo{}, nil)
		backend.On("Copy", ctx, "bucket", "a.txt", "bucket", "a.txt", mock.MatchedBy(func(meta *bucketry.ObjectMetadata) bool {
			return meta != nil && meta.ContentDisposition == "attachment"
		})).Return(nil)

		err := storage.Resync(ctx, "s3://bucket/a.txt")
		require.NoError(t, err)
		backend.AssertExpectations(t)
	})

	t.Run("missing object", func(t *testing.T) {
		storage, backend := newStorage(t, nil)
		backend.On("Head", ctx, "bucket", "a.txt").Return(bucketry.ObjectInfo{}, bucketry.ErrNotFound)

		err := storage.Resync(ctx, "s3://bucket/a.txt")
		assert.ErrorIs(t, err, bucketry.ErrNotFound)
	})

	t.Run("read-only mode blocks", func(t *testing.T) {
		storage, backend := newStorage(t, func(s *bucketry.Settings) {
			s.ReadOnly = true
		})

		err := storage.Resync(ctx, "s3://bucket/a.txt")
		assert.ErrorIs(t, err, bucketry.ErrReadOnly)
		backend.AssertNotCalled(t, "Copy")
	})
}

func TestStorage_ResyncPrefix(t *testing.T) {
	ctx := context.Background()

	storage, backend := newStorage(t, nil)
	backend.On("List", ctx, "bucket", "docs/", "", "", int32(0)).Return(bucketry.ListPage{
		Keys: []string{"docs/a.txt", "docs/b.txt"},
	}, nil)
	backend.On("Copy", ctx, "bucket", "docs/a.txt", "bucket", "docs/a.txt", mock.Anything).Return(nil)
	backend.On("Copy", ctx, "bucket", "docs/b.txt", "bucket", "docs/b.txt", mock.Anything).Return(nil)

	updated, err := storage.ResyncPrefix(ctx, "s3://bucket/docs")
	require.NoError(t, err)
	assert.Equal(t, 2, updated)
	backend.AssertExpectations(t)
}
