package orchestrate

import (
	"context"
	"testing"

	"github.com/ldm-sh/ldm/internal/storage"
	"github.com/ldm-sh/ldm/internal/types"
)

// fakeStorage implements storage.Storage by embedding nil sub-repositories;
// each test only exercises the repositories it explicitly overrides.
type fakeStorage struct {
	storage.PlatformRepository
	storage.ProjectRepository
	storage.FolderRepository
	storage.FileRepository
	storage.RowRepository
	storage.TMRepository
	storage.QAResultRepository
	storage.TrashRepository
	storage.CapabilityRepository

	txFn func(ctx context.Context, fn func(ctx context.Context, s storage.Storage) error) error
}

func (f *fakeStorage) Platforms() storage.PlatformRepository       { return f.PlatformRepository }
func (f *fakeStorage) Projects() storage.ProjectRepository         { return f.ProjectRepository }
func (f *fakeStorage) Folders() storage.FolderRepository           { return f.FolderRepository }
func (f *fakeStorage) Files() storage.FileRepository               { return f.FileRepository }
func (f *fakeStorage) Rows() storage.RowRepository                 { return f.RowRepository }
func (f *fakeStorage) TMs() storage.TMRepository                   { return f.TMRepository }
func (f *fakeStorage) QAResults() storage.QAResultRepository       { return f.QAResultRepository }
func (f *fakeStorage) Trash() storage.TrashRepository              { return f.TrashRepository }
func (f *fakeStorage) Capabilities() storage.CapabilityRepository  { return f.CapabilityRepository }
func (f *fakeStorage) Close() error                                { return nil }

func (f *fakeStorage) WithTx(ctx context.Context, fn func(ctx context.Context, s storage.Storage) error) error {
	if f.txFn != nil {
		return f.txFn(ctx, fn)
	}
	return fn(ctx, f)
}

type fakeTMs struct {
	storage.TMRepository
	assignCalls   []int64
	activateCalls []int64
	activateErr   error
}

func (f *fakeTMs) Assign(ctx context.Context, tmID int64, target types.Scope) error {
	f.assignCalls = append(f.assignCalls, tmID)
	return nil
}

func (f *fakeTMs) Activate(ctx context.Context, tmID int64) error {
	f.activateCalls = append(f.activateCalls, tmID)
	return f.activateErr
}

func TestAssignAndActivateTMRunsBothInOneTransaction(t *testing.T) {
	tms := &fakeTMs{}
	s := &fakeStorage{TMRepository: tms}

	err := AssignAndActivateTM(context.Background(), s, 42, types.Scope{Kind: types.ScopeProject, ProjectID: 1})
	if err != nil {
		t.Fatalf("AssignAndActivateTM error: %v", err)
	}
	if len(tms.assignCalls) != 1 || tms.assignCalls[0] != 42 {
		t.Errorf("expected one Assign(42) call, got %v", tms.assignCalls)
	}
	if len(tms.activateCalls) != 1 || tms.activateCalls[0] != 42 {
		t.Errorf("expected one Activate(42) call, got %v", tms.activateCalls)
	}
}

func TestAssignAndActivateTMPropagatesActivateFailure(t *testing.T) {
	wantErr := types.NewError(types.InvalidScope, "tm has no scope assignment")
	tms := &fakeTMs{activateErr: wantErr}
	s := &fakeStorage{TMRepository: tms}

	err := AssignAndActivateTM(context.Background(), s, 7, types.Scope{})
	if err == nil {
		t.Fatal("expected error from Activate to propagate")
	}
}

type fakeFiles struct {
	storage.FileRepository
	moveCalls []int64
}

func (f *fakeFiles) MoveCrossProject(ctx context.Context, fileID, targetProject int64, targetFolder *int64) error {
	f.moveCalls = append(f.moveCalls, fileID)
	return nil
}

func TestMoveFileCrossProjectWrapsInTransaction(t *testing.T) {
	files := &fakeFiles{}
	txCalled := false
	s := &fakeStorage{
		FileRepository: files,
		txFn: func(ctx context.Context, fn func(ctx context.Context, s storage.Storage) error) error {
			txCalled = true
			return fn(ctx, &fakeStorage{FileRepository: files})
		},
	}

	if err := MoveFileCrossProject(context.Background(), s, 5, 9, nil); err != nil {
		t.Fatalf("MoveFileCrossProject error: %v", err)
	}
	if !txCalled {
		t.Error("expected MoveFileCrossProject to run inside WithTx")
	}
	if len(files.moveCalls) != 1 || files.moveCalls[0] != 5 {
		t.Errorf("expected one MoveCrossProject(5) call, got %v", files.moveCalls)
	}
}

type fakeProjects struct {
	storage.ProjectRepository
	project      types.Project
	contents     types.FolderContents
	deleteCalled bool
}

func (f *fakeProjects) Get(ctx context.Context, id int64) (*types.Project, error) {
	return &f.project, nil
}

func (f *fakeProjects) GetContents(ctx context.Context, id int64) (*types.FolderContents, error) {
	return &f.contents, nil
}

func (f *fakeProjects) Delete(ctx context.Context, id int64) (bool, error) {
	f.deleteCalled = true
	return true, nil
}

type fakeFolders struct {
	storage.FolderRepository
	contentsByID map[int64]folderWithContents
	deleted      []int64
}

type folderWithContents struct {
	folder   types.Folder
	contents types.FolderContents
}

func (f *fakeFolders) GetWithContents(ctx context.Context, id int64) (*types.Folder, *types.FolderContents, error) {
	entry := f.contentsByID[id]
	return &entry.folder, &entry.contents, nil
}

func (f *fakeFolders) Delete(ctx context.Context, id int64) (bool, error) {
	f.deleted = append(f.deleted, id)
	return true, nil
}

type deleteTrackingFiles struct {
	storage.FileRepository
	deleted []int64
}

func (f *deleteTrackingFiles) Delete(ctx context.Context, id int64) (bool, error) {
	f.deleted = append(f.deleted, id)
	return true, nil
}

func (f *deleteTrackingFiles) GetRowsForExport(ctx context.Context, fileID int64) ([]types.Row, error) {
	return []types.Row{{ID: fileID * 100, FileID: fileID}}, nil
}

type fakeTrash struct {
	storage.TrashRepository
	created *types.Trash
}

func (f *fakeTrash) Create(ctx context.Context, itemType types.TrashItemType, itemID int64, itemName, itemData, deletedBy string, parentProjectID, parentFolderID *int64, retentionDays int) (*types.Trash, error) {
	f.created = &types.Trash{ID: 1, ItemType: itemType, ItemID: itemID, ItemName: itemName, ItemData: itemData}
	return f.created, nil
}

func TestDeleteProjectSerializesAndDeletesBottomUp(t *testing.T) {
	projects := &fakeProjects{
		project: types.Project{ID: 1, Name: "Demo"},
		contents: types.FolderContents{
			Files:      []types.File{{ID: 10, ProjectID: 1}},
			Subfolders: []types.Folder{{ID: 20, ProjectID: 1}},
		},
	}
	folders := &fakeFolders{
		contentsByID: map[int64]folderWithContents{
			20: {
				folder:   types.Folder{ID: 20, ProjectID: 1, Name: "Sub"},
				contents: types.FolderContents{Files: []types.File{{ID: 11, ProjectID: 1}}},
			},
		},
	}
	files := &deleteTrackingFiles{}
	trashRepo := &fakeTrash{}

	s := &fakeStorage{
		ProjectRepository: projects,
		FolderRepository:  folders,
		FileRepository:    files,
		TrashRepository:   trashRepo,
	}

	rec, err := DeleteProject(context.Background(), s, 1, "alice", 30)
	if err != nil {
		t.Fatalf("DeleteProject error: %v", err)
	}
	if rec == nil || trashRepo.created == nil {
		t.Fatal("expected a trash record to be created")
	}
	if trashRepo.created.ItemType != types.TrashProject {
		t.Errorf("ItemType = %v, want TrashProject", trashRepo.created.ItemType)
	}
	if len(files.deleted) != 2 {
		t.Errorf("expected both files deleted, got %v", files.deleted)
	}
	if len(folders.deleted) != 1 || folders.deleted[0] != 20 {
		t.Errorf("expected folder 20 deleted, got %v", folders.deleted)
	}
	if !projects.deleteCalled {
		t.Error("expected project to be deleted last")
	}
}
