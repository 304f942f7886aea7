// Package bucketry maps logical file names onto S3-compatible object-storage
// backends, selected by a URL scheme embedded in the stored name.
//
// A stored name has the form scheme://bucket/key. The scheme picks one of
// several configured endpoints (e.g. "s3" for AWS, "s3-minio" for a local
// MinIO), so one logical field can reference objects across backends.
//
// # Key Components
//
//   - Storage: the facade composing everything into save, open, url, delete
//     and exists operations over a narrow Backend capability
//   - Reference / ParseReference: the stored-name codec
//   - EndpointRegistry: scheme to endpoint resolution, including the
//     separate presigning endpoint fallback chain
//   - MetadataResolver: pure computation of object parameters (content
//     headers, cache lifetime, encryption, storage class) from settings
//   - URLSigner: public, signed and presigned-upload URL assembly
//   - AccessGuard: read-only mode enforcement
//
// All core computation is pure and stateless; settings are an immutable
// snapshot taken at construction, so one Storage serves any number of
// concurrent callers without locking. Network transfer, request signing and
// retries live entirely behind the Backend interface (see the s3 package
// for the AWS SDK implementation), which keeps the core testable against an
// in-memory fake.
//
// # Example Usage
//
//	settings := bucketry.DefaultSettings()
//	settings.Endpoints["s3-minio"] = bucketry.Endpoints{
//		EndpointURL:           "http://minio:9000",
//		PresigningEndpointURL: "https://files.example.com",
//	}
//
//	backends, err := s3.NewBackends(ctx, settings, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	storage, err := bucketry.NewStorage(settings, backends)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	name, err := storage.Save(ctx, "s3-minio://uploads/report.pdf", f)
//	url, err := storage.URL(ctx, name, bucketry.URLOptions{})
//
// See the config package for loading settings from files and environment,
// and the http package for a small gateway exposing these operations.
package bucketry
