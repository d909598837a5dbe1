// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"testing"

	"github.com/google/uuid"

	"instipress/internal/models"
)

func TestMediaFindByKey(t *testing.T) {
	db := testDB(t)
	media := NewMediaStore(db)
	author := testUser(t, db, "media-key-"+uuid.New().String()[:8]+"@test.local")

	key := "media/2026/08/" + uuid.New().String() + ".png"
	created, err := media.Create(&models.Media{
		Filename:     "test.png",
		OriginalName: "test.png",
		ContentType:  "image/png",
		SizeBytes:    1024,
		Bucket:       "instipress-media",
		S3Key:        key,
		UploaderID:   author.ID,
	})
	if err != nil {
		t.Fatalf("create media: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM media WHERE id = $1", created.ID)
	})

	found, err := media.FindByKey(key)
	if err != nil {
		t.Fatalf("find by key: %v", err)
	}
	if found == nil || found.ID != created.ID {
		t.Fatalf("find by key returned %+v, want id %s", found, created.ID)
	}

	missing, err := media.FindByKey("media/2026/08/" + uuid.New().String() + ".png")
	if err != nil {
		t.Fatalf("find missing key: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown key, got %+v", missing)
	}
}
