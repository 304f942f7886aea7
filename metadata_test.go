package bucketry_test

import (
	"strings"
	"testing"
	"time"

	"github.com/bucketry/bucketry"
	"github.com/stretchr/testify/assert"
)

func TestMetadataResolver_Encryption(t *testing.T) {
	tests := []struct {
		name       string
		encrypt    bool
		encryptKMS bool
		kmsKeyID   string
		want       bucketry.Encryption
	}{
		{"no encryption", false, false, "", bucketry.Encryption{}},
		{"aes256 flag", true, false, "", bucketry.Encryption{Mode: bucketry.EncryptionAES256}},
		{"aes256 flag ignores configured kms key", true, false, "key-123", bucketry.Encryption{Mode: bucketry.EncryptionAES256}},
		{"kms with key id", false, true, "key-123", bucketry.Encryption{Mode: bucketry.EncryptionKMS, KMSKeyID: "key-123"}},
		{"kms flag without key id degrades to aes256", false, true, "", bucketry.Encryption{Mode: bucketry.EncryptionAES256}},
		{"kms key id alone does nothing", false, false, "key-123", bucketry.Encryption{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			settings := bucketry.DefaultSettings()
			settings.Encrypt = tc.encrypt
			settings.EncryptKMS = tc.encryptKMS
			settings.KMSKeyID = tc.kmsKeyID

			meta := bucketry.NewMetadataResolver(settings).Resolve("s3://bucket/a.txt")
			assert.Equal(t, tc.want, meta.Encryption)
		})
	}
}

func TestMetadataResolver_Resolve(t *testing.T) {
	t.Run("cache control from max age", func(t *testing.T) {
		settings := bucketry.DefaultSettings()
		settings.MaxAge = 3600 * time.Second

		meta := bucketry.NewMetadataResolver(settings).Resolve("s3://bucket/a.txt")
		assert.Equal(t, "private,max-age=3600", meta.CacheControl)
		assert.Equal(t, 3600*time.Second, meta.MaxAge)
	})

	t.Run("content type from extension", func(t *testing.T) {
		settings := bucketry.DefaultSettings()
		resolver := bucketry.NewMetadataResolver(settings)

		meta := resolver.Resolve("s3://bucket/report.pdf")
		assert.Equal(t, "application/pdf", meta.ContentType)

		meta = resolver.Resolve("s3://bucket/no-extension")
		assert.Equal(t, "application/octet-stream", meta.ContentType)
	})

	t.Run("static settings pass through", func(t *testing.T) {
		settings := bucketry.DefaultSettings()
		settings.ContentDisposition = bucketry.Static("attachment")
		settings.ContentLanguage = bucketry.Static("de")
		settings.Metadata = map[string]bucketry.Setting[string]{
			"owner": bucketry.Static("media-team"),
		}

		meta := bucketry.NewMetadataResolver(settings).Resolve("s3://bucket/a.txt")
		assert.Equal(t, "attachment", meta.ContentDisposition)
		assert.Equal(t, "de", meta.ContentLanguage)
		assert.Equal(t, map[string]string{"owner": "media-team"}, meta.Metadata)
	})

	t.Run("computed settings see the stored name", func(t *testing.T) {
		settings := bucketry.DefaultSettings()
		settings.ContentDisposition = bucketry.Computed(func(name string) string {
			if strings.HasSuffix(name, ".pdf") {
				return "attachment"
			}
			return "inline"
		})
		settings.Metadata = map[string]bucketry.Setting[string]{
			"source": bucketry.Computed(func(name string) string { return name }),
		}
		resolver := bucketry.NewMetadataResolver(settings)

		meta := resolver.Resolve("s3://bucket/report.pdf")
		assert.Equal(t, "attachment", meta.ContentDisposition)
		assert.Equal(t, "s3://bucket/report.pdf", meta.Metadata["source"])

		meta = resolver.Resolve("s3://bucket/logo.png")
		assert.Equal(t, "inline", meta.ContentDisposition)
	})

	t.Run("storage class", func(t *testing.T) {
		settings := bucketry.DefaultSettings()
		meta := bucketry.NewMetadataResolver(settings).Resolve("s3://bucket/a.txt")
		assert.Equal(t, bucketry.StorageClassStandard, meta.StorageClass)

		settings.ReducedRedundancy = true
		meta = bucketry.NewMetadataResolver(settings).Resolve("s3://bucket/a.txt")
		assert.Equal(t, bucketry.StorageClassReducedRedundancy, meta.StorageClass)
	})
}
