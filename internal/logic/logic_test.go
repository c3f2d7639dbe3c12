package logic

import (
	"testing"
	"time"

	"github.com/nina-protocol/nina-indexer-sub000/internal/database"
	"github.com/nina-protocol/nina-indexer-sub000/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func TestAccountLogic_FindOrCreateIdempotent(t *testing.T) {
	db := newTestDB(t)
	accounts := NewAccountLogic(db)

	first, err := accounts.FindOrCreate("wallet-1")
	require.NoError(t, err)

	second, err := accounts.FindOrCreate("wallet-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&model.Account{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAccountLogic_FindByPublicKeyMiss(t *testing.T) {
	db := newTestDB(t)
	accounts := NewAccountLogic(db)

	acct, err := accounts.FindByPublicKey("never-seen")
	require.NoError(t, err)
	assert.Nil(t, acct)
}

func TestReleaseLogic_CreateReturnsExistingRow(t *testing.T) {
	db := newTestDB(t)
	accounts := NewAccountLogic(db)
	releases := NewReleaseLogic(db)

	acct, err := accounts.FindOrCreate("wallet-1")
	require.NoError(t, err)

	first, err := releases.Create(&model.Release{
		PublicKey: "release-1", Mint: "mint-1", Price: 100, AuthorityID: acct.ID,
	})
	require.NoError(t, err)

	// A second create with different attrs must not overwrite the row.
	second, err := releases.Create(&model.Release{
		PublicKey: "release-1", Mint: "mint-other", Price: 999, AuthorityID: acct.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "mint-1", second.Mint)
	assert.Equal(t, uint64(100), second.Price)
}

func TestReleaseLogic_SetHubOnlyOnce(t *testing.T) {
	db := newTestDB(t)
	accounts := NewAccountLogic(db)
	releases := NewReleaseLogic(db)
	hubs := NewHubLogic(db)

	acct, err := accounts.FindOrCreate("wallet-1")
	require.NoError(t, err)
	release, err := releases.Create(&model.Release{
		PublicKey: "release-1", Mint: "mint-1", AuthorityID: acct.ID,
	})
	require.NoError(t, err)
	hubA, err := hubs.Create(&model.Hub{PublicKey: "hub-a", Handle: "a", AuthorityID: acct.ID})
	require.NoError(t, err)
	hubB, err := hubs.Create(&model.Hub{PublicKey: "hub-b", Handle: "b", AuthorityID: acct.ID})
	require.NoError(t, err)

	require.NoError(t, releases.SetHub(release.ID, hubA.ID))
	require.NoError(t, releases.SetHub(release.ID, hubB.ID))

	fresh, err := releases.FindByPublicKey("release-1")
	require.NoError(t, err)
	require.NotNil(t, fresh.HubID)
	assert.Equal(t, hubA.ID, *fresh.HubID)
}

func TestReleaseLogic_AddCollectorIdempotent(t *testing.T) {
	db := newTestDB(t)
	accounts := NewAccountLogic(db)
	releases := NewReleaseLogic(db)

	acct, err := accounts.FindOrCreate("wallet-1")
	require.NoError(t, err)
	release, err := releases.Create(&model.Release{
		PublicKey: "release-1", Mint: "mint-1", AuthorityID: acct.ID,
	})
	require.NoError(t, err)

	require.NoError(t, releases.AddCollector(acct.ID, release.ID))
	require.NoError(t, releases.AddCollector(acct.ID, release.ID))

	var count int64
	require.NoError(t, db.Model(&model.ReleaseCollected{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, releases.RemoveCollector(acct.ID, release.ID))
	require.NoError(t, db.Model(&model.ReleaseCollected{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestHubLogic_FindByPublicKeyOrHandle(t *testing.T) {
	db := newTestDB(t)
	accounts := NewAccountLogic(db)
	hubs := NewHubLogic(db)

	acct, err := accounts.FindOrCreate("wallet-1")
	require.NoError(t, err)
	created, err := hubs.Create(&model.Hub{
		PublicKey: "hub-key", Handle: "my-hub", AuthorityID: acct.ID,
	})
	require.NoError(t, err)

	byKey, err := hubs.FindByPublicKeyOrHandle("hub-key")
	require.NoError(t, err)
	require.NotNil(t, byKey)
	assert.Equal(t, created.ID, byKey.ID)

	byHandle, err := hubs.FindByPublicKeyOrHandle("my-hub")
	require.NoError(t, err)
	require.NotNil(t, byHandle)
	assert.Equal(t, created.ID, byHandle.ID)

	missing, err := hubs.FindByPublicKeyOrHandle("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestHubLogic_SetContentVisibility(t *testing.T) {
	db := newTestDB(t)
	accounts := NewAccountLogic(db)
	hubs := NewHubLogic(db)
	releases := NewReleaseLogic(db)

	acct, err := accounts.FindOrCreate("wallet-1")
	require.NoError(t, err)
	hub, err := hubs.Create(&model.Hub{PublicKey: "hub-1", Handle: "h", AuthorityID: acct.ID})
	require.NoError(t, err)
	release, err := releases.Create(&model.Release{
		PublicKey: "release-1", Mint: "mint-1", AuthorityID: acct.ID,
	})
	require.NoError(t, err)

	require.NoError(t, hubs.AddRelease(&model.HubRelease{
		PublicKey: "content-1", HubID: hub.ID, ReleaseID: release.ID, Visible: true,
	}))

	patched, err := hubs.SetContentVisibility("content-1", false)
	require.NoError(t, err)
	assert.True(t, patched)

	var edge model.HubRelease
	require.NoError(t, db.Where("public_key = ?", "content-1").First(&edge).Error)
	assert.False(t, edge.Visible)

	patched, err = hubs.SetContentVisibility("no-such-edge", false)
	require.NoError(t, err)
	assert.False(t, patched)
}

func TestHubLogic_CollaboratorLifecycle(t *testing.T) {
	db := newTestDB(t)
	accounts := NewAccountLogic(db)
	hubs := NewHubLogic(db)

	owner, err := accounts.FindOrCreate("wallet-1")
	require.NoError(t, err)
	member, err := accounts.FindOrCreate("wallet-2")
	require.NoError(t, err)
	hub, err := hubs.Create(&model.Hub{PublicKey: "hub-1", Handle: "h", AuthorityID: owner.ID})
	require.NoError(t, err)

	edge := &model.HubCollaborator{PublicKey: "collab-1", HubID: hub.ID, AccountID: member.ID}
	require.NoError(t, hubs.AddCollaborator(edge))
	require.NoError(t, hubs.AddCollaborator(&model.HubCollaborator{
		PublicKey: "collab-1", HubID: hub.ID, AccountID: member.ID,
	}))

	var count int64
	require.NoError(t, db.Model(&model.HubCollaborator{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, hubs.RemoveCollaborator(hub.ID, member.ID))
	require.NoError(t, db.Model(&model.HubCollaborator{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestTransactionLogic_InsertDuplicateSignature(t *testing.T) {
	db := newTestDB(t)
	transactions := NewTransactionLogic(db)

	row := &model.Transaction{
		Signature:   "sig-1",
		BlockTime:   time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		EventType:   "ReleaseInit",
		AuthorityID: 1,
	}
	inserted, err := transactions.Insert(row)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = transactions.Insert(&model.Transaction{
		Signature:   "sig-1",
		BlockTime:   time.Date(2023, 6, 1, 0, 5, 0, 0, time.UTC),
		EventType:   "HubInit",
		AuthorityID: 1,
	})
	require.NoError(t, err)
	assert.False(t, inserted)

	var count int64
	require.NoError(t, db.Model(&model.Transaction{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestTransactionLogic_InsertRejectsEmptySignature(t *testing.T) {
	db := newTestDB(t)
	transactions := NewTransactionLogic(db)

	_, err := transactions.Insert(&model.Transaction{AuthorityID: 1})
	assert.Error(t, err)
}

func TestTransactionLogic_LatestOrdering(t *testing.T) {
	db := newTestDB(t)
	transactions := NewTransactionLogic(db)

	latest, err := transactions.Latest()
	require.NoError(t, err)
	assert.Nil(t, latest)

	early := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	_, err = transactions.Insert(&model.Transaction{
		Signature: "sig-early", BlockTime: early, EventType: "HubInit", AuthorityID: 1,
	})
	require.NoError(t, err)
	_, err = transactions.Insert(&model.Transaction{
		Signature: "sig-late", BlockTime: late, EventType: "HubInit", AuthorityID: 1,
	})
	require.NoError(t, err)
	// Same block time as sig-late: the higher id wins the tie.
	_, err = transactions.Insert(&model.Transaction{
		Signature: "sig-tie", BlockTime: late, EventType: "HubInit", AuthorityID: 1,
	})
	require.NoError(t, err)

	latest, err = transactions.Latest()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "sig-tie", latest.Signature)
}

func TestTransactionLogic_ExistingSignatures(t *testing.T) {
	db := newTestDB(t)
	transactions := NewTransactionLogic(db)

	_, err := transactions.Insert(&model.Transaction{
		Signature: "sig-1", BlockTime: time.Now().UTC(), EventType: "HubInit", AuthorityID: 1,
	})
	require.NoError(t, err)

	existing, err := transactions.ExistingSignatures([]string{"sig-1", "sig-2"})
	require.NoError(t, err)
	assert.True(t, existing["sig-1"])
	assert.False(t, existing["sig-2"])

	existing, err = transactions.ExistingSignatures(nil)
	require.NoError(t, err)
	assert.Empty(t, existing)
}

func TestPostLogic_AddReleaseReferenceIdempotent(t *testing.T) {
	db := newTestDB(t)
	accounts := NewAccountLogic(db)
	releases := NewReleaseLogic(db)
	posts := NewPostLogic(db)

	acct, err := accounts.FindOrCreate("wallet-1")
	require.NoError(t, err)
	release, err := releases.Create(&model.Release{
		PublicKey: "release-1", Mint: "mint-1", AuthorityID: acct.ID,
	})
	require.NoError(t, err)
	post, err := posts.Create(&model.Post{
		PublicKey: "post-1", Slug: "hello", AuthorityID: acct.ID,
	})
	require.NoError(t, err)

	require.NoError(t, posts.AddReleaseReference(post.ID, release.ID))
	require.NoError(t, posts.AddReleaseReference(post.ID, release.ID))

	var count int64
	require.NoError(t, db.Model(&model.PostRelease{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGetReleases_Pagination(t *testing.T) {
	db := newTestDB(t)
	accounts := NewAccountLogic(db)
	releases := NewReleaseLogic(db)

	acct, err := accounts.FindOrCreate("wallet-1")
	require.NoError(t, err)
	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := releases.Create(&model.Release{
			PublicKey:       string(rune('a' + i)),
			Mint:            string(rune('m' + i)),
			ReleaseDatetime: base.Add(time.Duration(i) * time.Hour),
			AuthorityID:     acct.ID,
		})
		require.NoError(t, err)
	}

	page, total, err := releases.GetReleases(1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	// Newest first.
	assert.Equal(t, "e", page[0].PublicKey)
	assert.Equal(t, "d", page[1].PublicKey)

	page, _, err = releases.GetReleases(3, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "a", page[0].PublicKey)
}
