package database

import (
	"OtaUpdateServer/internal/auth"
	"OtaUpdateServer/internal/model"
	"context"
	"log"
	"testing"
)

func TestMain(m *testing.M) {
	teardown, err := SetupTestDatabase()
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}

	m.Run()

	if teardown != nil && teardown(context.Background()) != nil {
		log.Fatalf("could not teardown postgres container: %v", err)
	}
}

func TestNew(t *testing.T) {
	srv := New()
	if srv == nil {
		t.Fatal("New() returned nil")
	}
}

func TestCreateApp(t *testing.T) {
	srv := New()

	appId, err := srv.CreateApp(model.NewAppData{
		AppKey:         "com.test.create",
		Name:           "TestApp",
		DefaultChannel: "production",
	})
	if err != nil || appId == -1 {
		t.Fatalf("Creating app failed. %v\n", err)
	}

	app, err := srv.GetAppByKey("com.test.create")
	if err != nil {
		t.Fatalf("GetAppByKey failed: %v\n", err)
	}
	if app.Id != appId {
		t.Fatalf("App ids did not match. expected %d, but got %d\n", appId, app.Id)
	}

	_, err = srv.CreateApp(model.NewAppData{
		AppKey: "com.test.create",
		Name:   "DuplicateKey",
	})
	if err == nil {
		t.Fatalf("CreateApp with duplicate key was expected to fail, but didnt!")
	}
}

func TestValidateApiKey(t *testing.T) {
	srv := New()

	appId, _ := srv.CreateApp(model.NewAppData{
		AppKey: "com.test.apikey",
		Name:   "ApiKeyApp",
	})

	key, err := auth.GenerateApiKey()
	if err != nil {
		t.Fatalf("Could not generate api key: %v\n", err)
	}

	hash := auth.HashApiKey(key)

	srv.CreateApiKey(model.NewApiKeyData{
		Key:   hash,
		AppId: appId,
	})

	if !srv.ValidateApiKey(hash) {
		t.Fatalf("ValidateApiKey returned false with key: %s\n", key)
	}

	id, err := srv.GetAppId(hash)
	if err != nil {
		t.Fatalf("GetAppId failed with error: %v\n", err)
	}
	if id != appId {
		t.Fatalf("App ids did not match. expected %d, but got %d\n", appId, id)
	}
}

func TestPublishBundleSwapsActivePointer(t *testing.T) {
	srv := New()

	appId, _ := srv.CreateApp(model.NewAppData{
		AppKey: "com.test.publish",
		Name:   "PublishApp",
	})
	_, err := srv.CreateChannel(model.NewChannelData{
		AppId:          appId,
		Name:           "production",
		IsPublic:       true,
		IosEnabled:     true,
		AndroidEnabled: true,
	})
	if err != nil {
		t.Fatalf("Creating channel failed: %v\n", err)
	}

	firstId, err := srv.PublishBundle(model.NewBundleData{
		AppId:       appId,
		Platform:    model.PlatformAndroid,
		Version:     "1.0.0",
		StoragePath: "bundles/1.0.0.zip",
		Checksum:    "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		CreatedAt:   1,
	}, "production")
	if err != nil {
		t.Fatalf("Publishing first bundle failed: %v\n", err)
	}

	active, err := srv.ActiveBundle(appId, "production", model.PlatformAndroid)
	if err != nil {
		t.Fatalf("ActiveBundle failed: %v\n", err)
	}
	if active == nil || active.Id != firstId {
		t.Fatalf("Expected bundle %d to be active, but got %v\n", firstId, active)
	}

	secondId, err := srv.PublishBundle(model.NewBundleData{
		AppId:       appId,
		Platform:    model.PlatformAndroid,
		Version:     "1.1.0",
		StoragePath: "bundles/1.1.0.zip",
		Checksum:    "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		CreatedAt:   2,
	}, "production")
	if err != nil {
		t.Fatalf("Publishing second bundle failed: %v\n", err)
	}

	active, err = srv.ActiveBundle(appId, "production", model.PlatformAndroid)
	if err != nil {
		t.Fatalf("ActiveBundle failed: %v\n", err)
	}
	if active == nil || active.Id != secondId {
		t.Fatalf("Expected bundle %d to be active, but got %v\n", secondId, active)
	}
}

func TestPublishBundleUnknownChannelRollsBack(t *testing.T) {
	srv := New()

	appId, _ := srv.CreateApp(model.NewAppData{
		AppKey: "com.test.rollback-tx",
		Name:   "RollbackTxApp",
	})

	_, err := srv.PublishBundle(model.NewBundleData{
		AppId:       appId,
		Platform:    model.PlatformIos,
		Version:     "1.0.0",
		StoragePath: "bundles/1.0.0.zip",
		Checksum:    "cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc",
		CreatedAt:   1,
	}, "nope")
	if err == nil {
		t.Fatalf("PublishBundle to unknown channel was expected to fail, but didnt!")
	}

	bundles, err := srv.GetBundles(appId)
	if err != nil {
		t.Fatalf("GetBundles failed: %v\n", err)
	}
	if len(bundles) != 0 {
		t.Fatalf("Expected no bundles after rolled back publish, but got %d\n", len(bundles))
	}
}

func TestActiveBundlePlatformMismatch(t *testing.T) {
	srv := New()

	appId, _ := srv.CreateApp(model.NewAppData{
		AppKey: "com.test.platform",
		Name:   "PlatformApp",
	})
	srv.CreateChannel(model.NewChannelData{
		AppId:          appId,
		Name:           "production",
		IosEnabled:     true,
		AndroidEnabled: true,
	})
	srv.PublishBundle(model.NewBundleData{
		AppId:       appId,
		Platform:    model.PlatformAndroid,
		Version:     "1.0.0",
		StoragePath: "bundles/1.0.0.zip",
		Checksum:    "dddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddd",
		CreatedAt:   1,
	}, "production")

	active, err := srv.ActiveBundle(appId, "production", model.PlatformIos)
	if err != nil {
		t.Fatalf("ActiveBundle failed: %v\n", err)
	}
	if active != nil {
		t.Fatalf("Expected no active ios bundle, but got %v\n", active)
	}

	active, err = srv.ActiveBundle(appId, "unknown-channel", model.PlatformAndroid)
	if err != nil {
		t.Fatalf("ActiveBundle failed: %v\n", err)
	}
	if active != nil {
		t.Fatalf("Expected no active bundle on unknown channel, but got %v\n", active)
	}
}

func TestRollbackChannel(t *testing.T) {
	srv := New()

	appId, _ := srv.CreateApp(model.NewAppData{
		AppKey: "com.test.rollback",
		Name:   "RollbackApp",
	})
	srv.CreateChannel(model.NewChannelData{
		AppId:          appId,
		Name:           "production",
		IosEnabled:     true,
		AndroidEnabled: true,
	})
	firstId, _ := srv.PublishBundle(model.NewBundleData{
		AppId:       appId,
		Platform:    model.PlatformAndroid,
		Version:     "1.0.0",
		StoragePath: "bundles/1.0.0.zip",
		Checksum:    "eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee",
		CreatedAt:   1,
	}, "production")
	srv.PublishBundle(model.NewBundleData{
		AppId:       appId,
		Platform:    model.PlatformAndroid,
		Version:     "1.1.0",
		StoragePath: "bundles/1.1.0.zip",
		Checksum:    "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff",
		CreatedAt:   2,
	}, "production")

	if err := srv.RollbackChannel(appId, "production", firstId); err != nil {
		t.Fatalf("RollbackChannel failed: %v\n", err)
	}

	active, err := srv.ActiveBundle(appId, "production", model.PlatformAndroid)
	if err != nil {
		t.Fatalf("ActiveBundle failed: %v\n", err)
	}
	if active == nil || active.Id != firstId {
		t.Fatalf("Expected bundle %d to be active after rollback, but got %v\n", firstId, active)
	}
}

func TestUpsertDevice(t *testing.T) {
	srv := New()

	appId, _ := srv.CreateApp(model.NewAppData{
		AppKey: "com.test.device",
		Name:   "DeviceApp",
	})

	data := model.UpsertDeviceData{
		AppId:         appId,
		DeviceId:      "device-1",
		Platform:      model.PlatformAndroid,
		BundleVersion: "1.0.0",
		NativeVersion: "2.0.0",
		NativeBuild:   20,
		IsProd:        true,
		LastSeenAt:    1,
	}
	if err := srv.UpsertDevice(data); err != nil {
		t.Fatalf("UpsertDevice failed: %v\n", err)
	}

	if err := srv.SetDeviceChannel(appId, "device-1", model.PlatformAndroid, "beta"); err != nil {
		t.Fatalf("SetDeviceChannel failed: %v\n", err)
	}

	// Second check-in must keep the stored override
	data.BundleVersion = "1.1.0"
	data.LastSeenAt = 2
	if err := srv.UpsertDevice(data); err != nil {
		t.Fatalf("UpsertDevice failed: %v\n", err)
	}

	device, err := srv.GetDevice(appId, "device-1")
	if err != nil {
		t.Fatalf("GetDevice failed: %v\n", err)
	}
	if device == nil {
		t.Fatal("GetDevice returned nil for known device")
	}
	if device.BundleVersion != "1.1.0" {
		t.Fatalf("Expected bundle version 1.1.0, but got %s\n", device.BundleVersion)
	}
	if device.ChannelOverride != "beta" {
		t.Fatalf("Expected channel override to survive upsert, but got %q\n", device.ChannelOverride)
	}

	if err := srv.ClearDeviceChannel(appId, "device-1"); err != nil {
		t.Fatalf("ClearDeviceChannel failed: %v\n", err)
	}
	device, _ = srv.GetDevice(appId, "device-1")
	if device.ChannelOverride != "" {
		t.Fatalf("Expected cleared override, but got %q\n", device.ChannelOverride)
	}

	device, err = srv.GetDevice(appId, "never-seen")
	if err != nil {
		t.Fatalf("GetDevice failed: %v\n", err)
	}
	if device != nil {
		t.Fatalf("Expected nil for unknown device, but got %v\n", device)
	}

	// Clearing a device that never checked in is a no-op, not an error
	if err := srv.ClearDeviceChannel(appId, "never-seen"); err != nil {
		t.Fatalf("ClearDeviceChannel for unknown device failed: %v\n", err)
	}
}

func TestUpdateChannelPolicy(t *testing.T) {
	srv := New()

	appId, _ := srv.CreateApp(model.NewAppData{
		AppKey: "com.test.policy",
		Name:   "PolicyApp",
	})
	channelId, _ := srv.CreateChannel(model.NewChannelData{
		AppId:          appId,
		Name:           "beta",
		IosEnabled:     true,
		AndroidEnabled: true,
	})

	isPublic := true
	selfAssign := true
	err := srv.UpdateChannelPolicy(channelId, model.UpdateChannelDTO{
		IsPublic:              &isPublic,
		AllowDeviceSelfAssign: &selfAssign,
	})
	if err != nil {
		t.Fatalf("UpdateChannelPolicy failed: %v\n", err)
	}

	channel, err := srv.GetChannelById(channelId)
	if err != nil {
		t.Fatalf("GetChannelById failed: %v\n", err)
	}
	if !channel.IsPublic || !channel.AllowDeviceSelfAssign {
		t.Fatalf("Expected patched flags to be set, but got %+v\n", channel)
	}
	if !channel.IosEnabled || !channel.AndroidEnabled {
		t.Fatalf("Expected untouched flags to survive patch, but got %+v\n", channel)
	}
}

func TestCreateCheckin(t *testing.T) {
	srv := New()

	appId, _ := srv.CreateApp(model.NewAppData{
		AppKey: "com.test.checkin",
		Name:   "CheckinApp",
	})

	err := srv.CreateCheckin(model.NewCheckinData{
		AppId:         appId,
		DeviceId:      "device-1",
		Platform:      model.PlatformAndroid,
		BundleVersion: "1.0.0",
		NativeBuild:   20,
		Channel:       "production",
		CreatedAt:     1,
	})
	if err != nil {
		t.Fatalf("CreateCheckin failed: %v\n", err)
	}
}

func TestAuthSessions(t *testing.T) {
	srv := New()

	publisherId, err := srv.CreatePublisher(model.NewPublisherData{
		Name:         "test-publisher",
		PasswordHash: "not-a-real-hash",
	})
	if err != nil {
		t.Fatalf("CreatePublisher failed: %v\n", err)
	}

	publisher, err := srv.GetPublisherByName("test-publisher")
	if err != nil {
		t.Fatalf("GetPublisherByName failed: %v\n", err)
	}
	if publisher.Id != publisherId {
		t.Fatalf("Publisher ids did not match. expected %d, but got %d\n", publisherId, publisher.Id)
	}

	sessionId, err := auth.GenerateSessionToken()
	if err != nil {
		t.Fatalf("Could not generate session token: %v\n", err)
	}

	err = srv.CreateAuthSession(model.NewAuthSessionData{
		Id:          sessionId,
		PublisherId: publisherId,
		Expiry:      auth.GetExpiryForSession(),
	})
	if err != nil {
		t.Fatalf("CreateAuthSession failed: %v\n", err)
	}

	session, err := srv.GetAuthSession(sessionId)
	if err != nil {
		t.Fatalf("GetAuthSession failed: %v\n", err)
	}
	if session.PublisherId != publisherId {
		t.Fatalf("Publisher ids did not match. expected %d, but got %d\n", publisherId, session.PublisherId)
	}

	newId, err := srv.ExtendAuthSession(sessionId, auth.GetExpiryForSession())
	if err != nil {
		t.Fatalf("ExtendAuthSession failed: %v\n", err)
	}
	if newId == "" {
		t.Fatal("ExtendAuthSession returned empty session id")
	}
}

func TestSoftDeleteBundle(t *testing.T) {
	srv := New()

	appId, _ := srv.CreateApp(model.NewAppData{
		AppKey: "com.test.delete",
		Name:   "DeleteApp",
	})
	srv.CreateChannel(model.NewChannelData{
		AppId:          appId,
		Name:           "production",
		IosEnabled:     true,
		AndroidEnabled: true,
	})
	firstId, _ := srv.PublishBundle(model.NewBundleData{
		AppId:       appId,
		Platform:    model.PlatformAndroid,
		Version:     "1.0.0",
		StoragePath: "bundles/1.0.0.zip",
		Checksum:    "1111111111111111111111111111111111111111111111111111111111111111",
		CreatedAt:   1,
	}, "production")

	// The live bundle cannot be deleted
	if err := srv.SoftDeleteBundle(firstId); err == nil {
		t.Fatal("SoftDeleteBundle of live bundle was expected to fail, but didnt!")
	}

	secondId, _ := srv.PublishBundle(model.NewBundleData{
		AppId:       appId,
		Platform:    model.PlatformAndroid,
		Version:     "1.1.0",
		StoragePath: "bundles/1.1.0.zip",
		Checksum:    "2222222222222222222222222222222222222222222222222222222222222222",
		CreatedAt:   2,
	}, "production")
	if secondId == 0 {
		t.Fatal("Publishing second bundle failed")
	}

	if err := srv.SoftDeleteBundle(firstId); err != nil {
		t.Fatalf("SoftDeleteBundle failed: %v\n", err)
	}
}
