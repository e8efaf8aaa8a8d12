package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/korekulturteacher-afk/village-photos/internal/dto"
	"github.com/korekulturteacher-afk/village-photos/internal/model"
)

func newTestRequestService(t *testing.T) (RequestService, *testRepos) {
	t.Helper()
	repo, mocks := newTestRepos()
	return NewRequestService(testConfig(), repo, zap.NewNop()), mocks
}

func newCreateRequest(ids ...string) *dto.CreateDownloadRequest {
	return &dto.CreateDownloadRequest{
		PhotoIDs: ids,
		Name:     "Kim",
		Phone:    "010-1234-5678",
		Reason:   "가족 사진 보관",
	}
}

func TestRequestService_Create(t *testing.T) {
	svc, mocks := newTestRequestService(t)
	ctx := context.Background()

	a, b := driveID("a1"), driveID("b2")
	seedPhoto(mocks, a, "a.jpg", true, true)
	seedPhoto(mocks, b, "b.jpg", true, true)

	// 重复 ID 去重
	req, err := svc.Create(ctx, "kim@example.com", newCreateRequest(a, b, a))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if req.Status != model.RequestStatusPending {
		t.Errorf("新请求应为 pending, 得到 %s", req.Status)
	}
	if len(req.PhotoIDs) != 2 {
		t.Errorf("photo_ids 应去重为 2, 得到 %d", len(req.PhotoIDs))
	}
	if req.UserName != "Kim" || req.UserPhone != "010-1234-5678" {
		t.Errorf("联系信息不符: %s %s", req.UserName, req.UserPhone)
	}
}

func TestRequestService_Create_UnknownPhotos(t *testing.T) {
	svc, mocks := newTestRequestService(t)
	seedPhoto(mocks, driveID("a1"), "a.jpg", true, true)

	_, err := svc.Create(context.Background(), "kim@example.com",
		newCreateRequest(driveID("a1"), driveID("zz")))
	if !errors.Is(err, ErrUnknownPhotos) {
		t.Errorf("期望 ErrUnknownPhotos, 得到 %v", err)
	}
}

func TestRequestService_Create_PendingCap(t *testing.T) {
	svc, mocks := newTestRequestService(t)
	ctx := context.Background()

	id := driveID("a1")
	seedPhoto(mocks, id, "a.jpg", true, true)

	// 预置 3 条待审核请求（上限）
	for i := 0; i < 3; i++ {
		mocks.request.Create(ctx, &model.DownloadRequest{
			UserEmail: "kim@example.com",
			PhotoIDs:  model.StringArray{id},
			Status:    model.RequestStatusPending,
		})
	}

	_, err := svc.Create(ctx, "kim@example.com", newCreateRequest(id))
	if !errors.Is(err, ErrTooManyPending) {
		t.Errorf("期望 ErrTooManyPending, 得到 %v", err)
	}

	// 其他用户不受影响
	if _, err := svc.Create(ctx, "lee@example.com", newCreateRequest(id)); err != nil {
		t.Errorf("其他用户应可创建: %v", err)
	}
}

func TestRequestService_Create_RateLimited(t *testing.T) {
	svc, mocks := newTestRequestService(t)
	ctx := context.Background()

	id := driveID("a1")
	seedPhoto(mocks, id, "a.jpg", true, true)

	// 前 3 次成功，各请求审批后不占 pending 名额
	for i := 0; i < 3; i++ {
		req, err := svc.Create(ctx, "kim@example.com", newCreateRequest(id))
		if err != nil {
			t.Fatalf("第 %d 次创建: %v", i+1, err)
		}
		mocks.request.requests[req.ID].Status = model.RequestStatusRejected
	}

	// 窗口内第 4 次触发频率限额
	_, err := svc.Create(ctx, "kim@example.com", newCreateRequest(id))
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("期望 ErrRateLimited, 得到 %v", err)
	}
}

func TestRequestService_Create_RateWindowResets(t *testing.T) {
	svc, mocks := newTestRequestService(t)
	ctx := context.Background()

	id := driveID("a1")
	seedPhoto(mocks, id, "a.jpg", true, true)

	base := time.Now()
	mocks.rateLimit.now = func() time.Time { return base }

	for i := 0; i < 3; i++ {
		req, err := svc.Create(ctx, "kim@example.com", newCreateRequest(id))
		if err != nil {
			t.Fatalf("第 %d 次创建: %v", i+1, err)
		}
		mocks.request.requests[req.ID].Status = model.RequestStatusRejected
	}

	// 窗口过期后计数重置
	mocks.rateLimit.now = func() time.Time { return base.Add(time.Hour + time.Minute) }
	if _, err := svc.Create(ctx, "kim@example.com", newCreateRequest(id)); err != nil {
		t.Errorf("窗口过期后应可创建: %v", err)
	}
}

func TestRequestService_Review_Approve(t *testing.T) {
	svc, mocks := newTestRequestService(t)
	ctx := context.Background()

	mocks.request.Create(ctx, &model.DownloadRequest{
		ID:        "req-1",
		UserEmail: "kim@example.com",
		Status:    model.RequestStatusPending,
	})

	before := time.Now()
	req, err := svc.Review(ctx, "req-1", "admin", &dto.ReviewRequest{Action: "approve", AdminNote: "OK"})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if req.Status != model.RequestStatusApproved {
		t.Errorf("应为 approved, 得到 %s", req.Status)
	}
	if req.DownloadExpiresAt == nil {
		t.Fatal("批准后应设置下载有效期")
	}
	// 默认 7 天有效期
	want := before.Add(168 * time.Hour)
	if req.DownloadExpiresAt.Before(want.Add(-time.Minute)) || req.DownloadExpiresAt.After(want.Add(time.Minute)) {
		t.Errorf("有效期不符: %v", req.DownloadExpiresAt)
	}
	if req.AdminNote == nil || *req.AdminNote != "OK" {
		t.Error("admin_note 未写入")
	}
}

func TestRequestService_Review_Reject(t *testing.T) {
	svc, mocks := newTestRequestService(t)
	ctx := context.Background()

	mocks.request.Create(ctx, &model.DownloadRequest{
		ID:        "req-1",
		UserEmail: "kim@example.com",
		Status:    model.RequestStatusPending,
	})

	req, err := svc.Review(ctx, "req-1", "admin", &dto.ReviewRequest{Action: "reject"})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if req.Status != model.RequestStatusRejected {
		t.Errorf("应为 rejected, 得到 %s", req.Status)
	}
	if req.DownloadExpiresAt != nil {
		t.Error("拒绝不应设置下载有效期")
	}
}

func TestRequestService_Review_AlreadyReviewed(t *testing.T) {
	svc, mocks := newTestRequestService(t)
	ctx := context.Background()

	mocks.request.Create(ctx, &model.DownloadRequest{
		ID:        "req-1",
		UserEmail: "kim@example.com",
		Status:    model.RequestStatusPending,
	})

	if _, err := svc.Review(ctx, "req-1", "admin", &dto.ReviewRequest{Action: "approve"}); err != nil {
		t.Fatalf("首次审核: %v", err)
	}

	// 二次审核不得覆盖先前结果
	_, err := svc.Review(ctx, "req-1", "admin2", &dto.ReviewRequest{Action: "reject"})
	if !errors.Is(err, ErrAlreadyReviewed) {
		t.Errorf("期望 ErrAlreadyReviewed, 得到 %v", err)
	}
	if mocks.request.requests["req-1"].Status != model.RequestStatusApproved {
		t.Error("先到的审核结果被覆盖")
	}
}

func TestRequestService_Review_NotFound(t *testing.T) {
	svc, _ := newTestRequestService(t)

	_, err := svc.Review(context.Background(), "req-missing", "admin", &dto.ReviewRequest{Action: "approve"})
	if !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("期望 ErrRequestNotFound, 得到 %v", err)
	}
}

func TestRequestService_GetMine_Ownership(t *testing.T) {
	svc, mocks := newTestRequestService(t)
	ctx := context.Background()

	mocks.request.Create(ctx, &model.DownloadRequest{
		ID:        "req-1",
		UserEmail: "kim@example.com",
		Status:    model.RequestStatusPending,
	})

	if _, err := svc.GetMine(ctx, "kim@example.com", "req-1"); err != nil {
		t.Fatalf("GetMine: %v", err)
	}
	// 其他用户不可见
	if _, err := svc.GetMine(ctx, "lee@example.com", "req-1"); !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("期望 ErrRequestNotFound, 得到 %v", err)
	}
}
