// Package relapse provides the core of a time-gated photo sharing backend.
//
// Users upload photos, optionally linked to an event. An event carries a
// release time; its photos can only be listed once that time has passed.
// Photo bytes live in a blob store and are handed out through short lived
// signed URLs, while events and photo records live in a relational store.
//
// # Key Components
//
//   - RelapseService: Orchestrates uploads, event creation and listings
//   - MetaDataRepo: Interface for event and photo persistence (PostgreSQL, SQLite)
//   - BlobStore: Interface for object uploads and URL signing (S3, GCS, MinIO, Stowry)
//
// # Example Usage
//
//	service, err := relapse.NewRelapseService(repo, blobs, relapse.ServiceConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	event, err := service.CreateEvent(ctx, relapse.CreateEventRequest{
//	    ProcessDatetime: "2030-01-01T00:00:00",
//	})
//
//	saved, err := service.SavePhoto(ctx, relapse.SavePhotoRequest{
//	    UserID:    "alice",
//	    EventUUID: event.UUID,
//	    Filename:  "beach.jpg",
//	}, file)
//
// See the http package for the REST API and the database package for the
// metadata backends.
package relapse
