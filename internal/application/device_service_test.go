package application

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDeviceService_AddDevice(t *testing.T) {
	t.Parallel()

	t.Run("requires a name", func(t *testing.T) {
		t.Parallel()

		svc := NewDeviceService(newDeviceRepoStub(), newUserRepoStub(), sequence("device"))
		_, err := svc.AddDevice(context.Background(), DeviceInput{Name: "   "})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["name"]; !ok {
			t.Fatalf("expected name validation error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("rejects unknown responsible users", func(t *testing.T) {
		t.Parallel()

		svc := NewDeviceService(newDeviceRepoStub(), newUserRepoStub(), sequence("device"))
		_, err := svc.AddDevice(context.Background(), DeviceInput{Name: "Oszilloskop", ManagedByUserID: "ghost@example.com"})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if got := vErr.FieldErrors["managed_by_user_id"]; got != "Verantwortlicher Benutzer existiert nicht." {
			t.Fatalf("unexpected owner message %q", got)
		}
	})

	t.Run("defaults to active and assigns an id", func(t *testing.T) {
		t.Parallel()

		repo := newDeviceRepoStub()
		users := newUserRepoStub(User{ID: "anna@example.com", Name: "Anna"})
		svc := NewDeviceService(repo, users, sequence("device"))

		device, err := svc.AddDevice(context.Background(), DeviceInput{Name: " Oszilloskop ", ManagedByUserID: "anna@example.com"})
		if err != nil {
			t.Fatalf("AddDevice returned error: %v", err)
		}
		want := Device{ID: "device-1", Name: "Oszilloskop", ManagedByUserID: "anna@example.com", IsActive: true}
		if diff := cmp.Diff(want, device); diff != "" {
			t.Fatalf("unexpected device (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(want, repo.created); diff != "" {
			t.Fatalf("unexpected persisted device (-want +got):\n%s", diff)
		}
	})

	t.Run("honours an explicit inactive flag", func(t *testing.T) {
		t.Parallel()

		inactive := false
		svc := NewDeviceService(newDeviceRepoStub(), nil, sequence("device"))
		device, err := svc.AddDevice(context.Background(), DeviceInput{Name: "Lötstation", IsActive: &inactive})
		if err != nil {
			t.Fatalf("AddDevice returned error: %v", err)
		}
		if device.IsActive {
			t.Fatal("expected device to be inactive")
		}
	})
}

func TestDeviceService_UpdateDevice(t *testing.T) {
	t.Parallel()

	existing := Device{ID: "device-1", Name: "Oszilloskop", ManagedByUserID: "anna@example.com", IsActive: true}

	t.Run("propagates ErrNotFound when the device is missing", func(t *testing.T) {
		t.Parallel()

		svc := NewDeviceService(newDeviceRepoStub(), newUserRepoStub(), nil)
		name := "Neu"
		if _, err := svc.UpdateDevice(context.Background(), "missing", DeviceUpdate{Name: &name}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("keeps fields that are not set", func(t *testing.T) {
		t.Parallel()

		repo := newDeviceRepoStub(existing)
		svc := NewDeviceService(repo, newUserRepoStub(), nil)
		name := "Oszilloskop 2"
		device, err := svc.UpdateDevice(context.Background(), existing.ID, DeviceUpdate{Name: &name})
		if err != nil {
			t.Fatalf("UpdateDevice returned error: %v", err)
		}
		want := existing
		want.Name = "Oszilloskop 2"
		if diff := cmp.Diff(want, device); diff != "" {
			t.Fatalf("unexpected device (-want +got):\n%s", diff)
		}
	})

	t.Run("clears the responsible user", func(t *testing.T) {
		t.Parallel()

		repo := newDeviceRepoStub(existing)
		svc := NewDeviceService(repo, newUserRepoStub(), nil)
		empty := ""
		device, err := svc.UpdateDevice(context.Background(), existing.ID, DeviceUpdate{ManagedByUserID: &empty})
		if err != nil {
			t.Fatalf("UpdateDevice returned error: %v", err)
		}
		if device.ManagedByUserID != "" {
			t.Fatalf("expected owner to be cleared, got %q", device.ManagedByUserID)
		}
	})

	t.Run("rejects an empty name", func(t *testing.T) {
		t.Parallel()

		repo := newDeviceRepoStub(existing)
		svc := NewDeviceService(repo, newUserRepoStub(), nil)
		empty := " "
		_, err := svc.UpdateDevice(context.Background(), existing.ID, DeviceUpdate{Name: &empty})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if repo.updated.ID != "" {
			t.Fatalf("expected no update, got %+v", repo.updated)
		}
	})
}

func TestDeviceService_SetActive(t *testing.T) {
	t.Parallel()

	repo := newDeviceRepoStub(Device{ID: "device-1", Name: "Oszilloskop", IsActive: true})
	svc := NewDeviceService(repo, nil, nil)

	device, err := svc.SetActive(context.Background(), "device-1", false)
	if err != nil {
		t.Fatalf("SetActive returned error: %v", err)
	}
	if device.IsActive {
		t.Fatal("expected device to be deactivated")
	}
}

func TestDeviceService_ListDevices(t *testing.T) {
	t.Parallel()

	repo := newDeviceRepoStub(
		Device{ID: "d3", Name: "Multimeter"},
		Device{ID: "d2", Name: "lötstation"},
		Device{ID: "d1", Name: "Lötstation"},
	)
	svc := NewDeviceService(repo, nil, nil)

	devices, err := svc.ListDevices(context.Background())
	if err != nil {
		t.Fatalf("ListDevices returned error: %v", err)
	}
	var ids []string
	for _, d := range devices {
		ids = append(ids, d.ID)
	}
	if diff := cmp.Diff([]string{"d1", "d2", "d3"}, ids); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestDeviceService_DeleteDevice(t *testing.T) {
	t.Parallel()

	svc := NewDeviceService(newDeviceRepoStub(), nil, nil)
	if err := svc.DeleteDevice(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
