package trash

import (
	"testing"

	"github.com/ldm-sh/ldm/internal/types"
)

func fakeLoader(nodes map[int64]FolderNode) FolderLoader {
	return func(id int64) (FolderNode, error) {
		return nodes[id], nil
	}
}

func TestSerializeFolderNested(t *testing.T) {
	nodes := map[int64]FolderNode{
		1: {
			Folder:       types.Folder{ID: 1, Name: "F1"},
			Files:        []FilePayload{{File: types.File{ID: 10, Name: "G"}, Rows: []types.Row{{ID: 100}, {ID: 101}, {ID: 102}}}},
			SubfolderIDs: []int64{2},
		},
		2: {
			Folder: types.Folder{ID: 2, Name: "F2"},
			Files:  []FilePayload{{File: types.File{ID: 20, Name: "H"}}},
		},
	}

	root, err := SerializeFolder(1, fakeLoader(nodes))
	if err != nil {
		t.Fatal(err)
	}
	if root.Folder.ID != 1 {
		t.Fatalf("expected root folder 1, got %d", root.Folder.ID)
	}
	if len(root.Files) != 1 || len(root.Files[0].Rows) != 3 {
		t.Fatalf("expected 1 file with 3 rows, got %+v", root.Files)
	}
	if len(root.Subfolders) != 1 || root.Subfolders[0].Folder.ID != 2 {
		t.Fatalf("expected one subfolder with id 2, got %+v", root.Subfolders)
	}
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	root := &FolderPayload{
		Folder: types.Folder{ID: 1, Name: "F1"},
		Files:  []FilePayload{{File: types.File{ID: 10}, Rows: []types.Row{{ID: 100, Source: "hi"}}}},
	}
	data, err := MarshalFolder(root)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := UnmarshalFolder(data)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Files[0].Rows[0].Source != "hi" {
		t.Fatalf("roundtrip lost row data: %+v", decoded)
	}
}

type recordingInserter struct {
	folders []int64
	files   []int64
	rowSets [][]int64
}

func (r *recordingInserter) InsertFolder(f types.Folder) error {
	r.folders = append(r.folders, f.ID)
	return nil
}
func (r *recordingInserter) InsertFile(f types.File) error {
	r.files = append(r.files, f.ID)
	return nil
}
func (r *recordingInserter) InsertRows(rows []types.Row) error {
	var ids []int64
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	r.rowSets = append(r.rowSets, ids)
	return nil
}

func TestRestoreOrderIsBottomUp(t *testing.T) {
	root := &FolderPayload{
		Folder: types.Folder{ID: 1},
		Files:  []FilePayload{{File: types.File{ID: 10}, Rows: []types.Row{{ID: 100}, {ID: 101}}}},
		Subfolders: []FolderPayload{
			{Folder: types.Folder{ID: 2}, Files: []FilePayload{{File: types.File{ID: 20}}}},
		},
	}

	ins := &recordingInserter{}
	if err := Restore(root, ins); err != nil {
		t.Fatal(err)
	}
	if len(ins.folders) != 2 || ins.folders[0] != 1 {
		t.Fatalf("expected root folder inserted first, got %v", ins.folders)
	}
	if len(ins.files) != 2 || ins.files[0] != 10 {
		t.Fatalf("expected root's file inserted before subfolder's file, got %v", ins.files)
	}
	if len(ins.rowSets) != 1 || len(ins.rowSets[0]) != 2 {
		t.Fatalf("expected one row batch of 2 rows, got %v", ins.rowSets)
	}
}

func TestSerializeFolderRejectsExcessiveDepth(t *testing.T) {
	nodes := map[int64]FolderNode{}
	var chain FolderLoader = func(id int64) (FolderNode, error) {
		next := id + 1
		return FolderNode{Folder: types.Folder{ID: id}, SubfolderIDs: []int64{next}}, nil
	}
	_ = nodes
	_, err := SerializeFolder(1, func(id int64) (FolderNode, error) {
		if id > MaxDepth+5 {
			return FolderNode{Folder: types.Folder{ID: id}}, nil
		}
		return chain(id)
	})
	if err == nil {
		t.Fatal("expected an error once depth exceeds MaxDepth")
	}
}
