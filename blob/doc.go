// Package blob selects the object storage backend that holds photo bytes.
//
// Supported backends:
//
//   - s3: Amazon S3 or any S3-compatible store (aws-sdk-go-v2)
//   - gcs: Google Cloud Storage
//   - minio: a MinIO server (minio-go)
//   - stowry: a Stowry object server
//
// With Backend set to "auto", a GCS bucket or credentials file selects gcs
// and everything else falls back to s3.
//
//	store, err := blob.Connect(ctx, blob.Config{
//	    Backend: "s3",
//	    Bucket:  "relapse-photos",
//	    Region:  "us-east-1",
//	})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
package blob
