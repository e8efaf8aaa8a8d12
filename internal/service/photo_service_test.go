package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/korekulturteacher-afk/village-photos/internal/drive"
	"github.com/korekulturteacher-afk/village-photos/internal/dto"
	"github.com/korekulturteacher-afk/village-photos/internal/model"
	"github.com/korekulturteacher-afk/village-photos/pkg/cache"
)

// driveID 构造符合远端格式的 30 位文件 ID
func driveID(suffix string) string {
	return "A" + strings.Repeat("x", 29-len(suffix)) + suffix
}

func newTestPhotoService(t *testing.T) (PhotoService, *testRepos, *mockDriveClient) {
	t.Helper()
	repo, mocks := newTestRepos()
	dc := newMockDriveClient()
	thumbCache := cache.NewLRU(100, 30*time.Minute)
	svc := NewPhotoService(testConfig(), repo, dc, thumbCache, zap.NewNop())
	return svc, mocks, dc
}

func seedPhoto(mocks *testRepos, id, name string, approved, public bool) {
	mocks.photo.photos[id] = &model.Photo{
		ID:         id,
		Name:       name,
		MimeType:   "image/jpeg",
		IsApproved: approved,
		IsPublic:   public,
	}
}

func TestPhotoService_ListGallery_OnlyVisible(t *testing.T) {
	svc, mocks, _ := newTestPhotoService(t)

	seedPhoto(mocks, driveID("a1"), "a.jpg", true, true)
	seedPhoto(mocks, driveID("b2"), "b.jpg", true, false) // 已审核但未公开
	seedPhoto(mocks, driveID("c3"), "c.jpg", false, false)

	photos, err := svc.ListGallery(context.Background())
	if err != nil {
		t.Fatalf("ListGallery: %v", err)
	}
	if len(photos) != 1 {
		t.Fatalf("画廊应只含 1 张可见照片, 得到 %d", len(photos))
	}
	if photos[0].Name != "a.jpg" {
		t.Errorf("可见照片不符: %s", photos[0].Name)
	}
}

func TestPhotoService_Sync(t *testing.T) {
	svc, mocks, dc := newTestPhotoService(t)
	ctx := context.Background()

	existing := driveID("e1")
	seedPhoto(mocks, existing, "existing.jpg", true, true)
	// 历史同步故障产生的脏 ID
	mocks.photo.photos["123_corrupted"] = &model.Photo{ID: "123_corrupted", Name: "bad.jpg"}

	dc.addFile(existing, "existing.jpg", nil)
	dc.addFile(driveID("n1"), "new1.jpg", nil)
	dc.addFile(driveID("n2"), "new2.jpg", nil)
	dc.files["short"] = mockInvalidFile("short", "invalid.jpg") // 无效格式，应跳过

	result, err := svc.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if result.Total != 4 {
		t.Errorf("total 应为 4, 得到 %d", result.Total)
	}
	if result.Added != 2 {
		t.Errorf("added 应为 2, 得到 %d", result.Added)
	}
	if result.Skipped != 1 {
		t.Errorf("skipped 应为 1, 得到 %d", result.Skipped)
	}
	if result.Removed != 1 {
		t.Errorf("removed 应为 1, 得到 %d", result.Removed)
	}
	if _, ok := mocks.photo.photos["123_corrupted"]; ok {
		t.Error("脏 ID 记录应被清理")
	}

	// 幂等：重复同步不重复入库
	result, err = svc.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync 二次调用: %v", err)
	}
	if result.Added != 0 {
		t.Errorf("重复同步 added 应为 0, 得到 %d", result.Added)
	}
}

func TestPhotoService_GetImage_Visibility(t *testing.T) {
	svc, mocks, dc := newTestPhotoService(t)
	ctx := context.Background()

	visible := driveID("v1")
	hidden := driveID("h1")
	seedPhoto(mocks, visible, "v.jpg", true, true)
	seedPhoto(mocks, hidden, "h.jpg", false, false)
	dc.addFile(visible, "v.jpg", []byte("jpeg-bytes"))

	data, mime, err := svc.GetImage(ctx, visible)
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	if string(data) != "jpeg-bytes" || mime != "image/jpeg" {
		t.Errorf("返回内容不符: %q %s", data, mime)
	}

	if _, _, err := svc.GetImage(ctx, hidden); !errors.Is(err, ErrPhotoNotVisible) {
		t.Errorf("未公开照片应拒绝, 得到 %v", err)
	}
	if _, _, err := svc.GetImage(ctx, driveID("zz")); !errors.Is(err, ErrPhotoNotFound) {
		t.Errorf("未知照片应 NotFound, 得到 %v", err)
	}
}

func TestPhotoService_GetThumbnail_Cached(t *testing.T) {
	svc, mocks, dc := newTestPhotoService(t)
	ctx := context.Background()

	id := driveID("t1")
	seedPhoto(mocks, id, "t.jpg", true, true)
	dc.addFile(id, "t.jpg", []byte("thumb-bytes"))

	if _, err := svc.GetThumbnail(ctx, id, 400); err != nil {
		t.Fatalf("GetThumbnail: %v", err)
	}
	if _, err := svc.GetThumbnail(ctx, id, 400); err != nil {
		t.Fatalf("GetThumbnail 二次调用: %v", err)
	}
	// 第二次命中缓存，不再访问远端
	if dc.downloads != 1 {
		t.Errorf("远端下载应只发生 1 次, 得到 %d", dc.downloads)
	}

	// 不同宽度是独立缓存键
	if _, err := svc.GetThumbnail(ctx, id, 800); err != nil {
		t.Fatalf("GetThumbnail 不同宽度: %v", err)
	}
	if dc.downloads != 2 {
		t.Errorf("不同宽度应再次下载, 得到 %d", dc.downloads)
	}
}

func TestPhotoService_BatchThumbnails_PartialFailure(t *testing.T) {
	svc, mocks, dc := newTestPhotoService(t)
	ctx := context.Background()

	ok := driveID("ok")
	bad := driveID("bd")
	seedPhoto(mocks, ok, "ok.jpg", true, true)
	seedPhoto(mocks, bad, "bad.jpg", true, true)
	dc.addFile(ok, "ok.jpg", []byte("bytes"))
	dc.addFile(bad, "bad.jpg", nil)
	dc.failIDs[bad] = true

	items := svc.BatchThumbnails(ctx, &dto.ThumbnailBatchRequest{FileIDs: []string{ok, bad}})
	if len(items) != 2 {
		t.Fatalf("应返回 2 项, 得到 %d", len(items))
	}
	if items[0].Error != "" || !strings.HasPrefix(items[0].DataURL, "data:image/jpeg;base64,") {
		t.Errorf("成功项不符: %+v", items[0])
	}
	if items[1].Error == "" || items[1].DataURL != "" {
		t.Errorf("失败项应带错误信息: %+v", items[1])
	}
}

func TestPhotoService_SetApproval(t *testing.T) {
	svc, mocks, _ := newTestPhotoService(t)
	ctx := context.Background()

	id := driveID("p1")
	seedPhoto(mocks, id, "p.jpg", false, false)

	n, err := svc.SetApproval(ctx, &dto.PhotoApprovalRequest{PhotoIDs: []string{id}, Approved: true}, "admin")
	if err != nil {
		t.Fatalf("SetApproval: %v", err)
	}
	if n != 1 {
		t.Errorf("应更新 1 行, 得到 %d", n)
	}
	p := mocks.photo.photos[id]
	if !p.IsApproved || !p.IsPublic {
		t.Error("审核通过应同时公开")
	}
	if p.ApprovedBy == nil || *p.ApprovedBy != "admin" {
		t.Error("approved_by 未写入")
	}

	// 撤销审核一并撤销公开
	if _, err := svc.SetApproval(ctx, &dto.PhotoApprovalRequest{PhotoIDs: []string{id}, Approved: false}, "admin"); err != nil {
		t.Fatalf("撤销审核: %v", err)
	}
	if p.IsApproved || p.IsPublic || p.ApprovedBy != nil {
		t.Error("撤销审核后状态应清空")
	}
}

func TestPhotoService_ApproveAll(t *testing.T) {
	svc, mocks, _ := newTestPhotoService(t)

	seedPhoto(mocks, driveID("q1"), "1.jpg", false, false)
	seedPhoto(mocks, driveID("q2"), "2.jpg", false, false)
	seedPhoto(mocks, driveID("q3"), "3.jpg", true, true)

	n, err := svc.ApproveAll(context.Background(), "admin")
	if err != nil {
		t.Fatalf("ApproveAll: %v", err)
	}
	if n != 2 {
		t.Errorf("应更新 2 行, 得到 %d", n)
	}
}

// mockInvalidFile 构造带无效 ID 的远端文件
func mockInvalidFile(id, name string) drive.File {
	return drive.File{ID: id, Name: name, MimeType: "image/jpeg"}
}
