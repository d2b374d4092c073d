package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func createProjectTree(b *testing.B, pages int) string {
	b.Helper()
	root := b.TempDir()
	dir := filepath.Join(root, "structures", "pages")
	for i := 0; i < pages/10+1; i++ {
		sub := filepath.Join(dir, fmt.Sprintf("section_%d", i))
		if err := os.MkdirAll(sub, 0o755); err != nil {
			b.Fatal(err)
		}
	}
	for i := 0; i < pages; i++ {
		path := filepath.Join(dir, fmt.Sprintf("section_%d", i/10), fmt.Sprintf("page_%d.json", i))
		if err := os.WriteFile(path, []byte(`[{"tag":"p","children":[{"textKey":"x"}]}]`), 0o644); err != nil {
			b.Fatal(err)
		}
	}
	return root
}

func BenchmarkFileWatcher_AddRecursive(b *testing.B) {
	for _, size := range []int{100, 1000} {
		b.Run(fmt.Sprintf("pages-%d", size), func(b *testing.B) {
			root := createProjectTree(b, size)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				fw, err := NewFileWatcher(root, time.Second, nil)
				if err != nil {
					b.Fatal(err)
				}
				if err := fw.AddRecursive("."); err != nil {
					b.Fatal(err)
				}
				_ = fw.Stop()
			}
		})
	}
}

func BenchmarkDebouncer_Flush(b *testing.B) {
	for _, size := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("events-%d", size), func(b *testing.B) {
			d := NewDebouncer(time.Hour)
			defer d.stop()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				for j := 0; j < size; j++ {
					d.pending = append(d.pending, ChangeEvent{Path: fmt.Sprintf("p%d.json", j%50)})
				}
				d.flush()
				<-d.output
			}
		})
	}
}

func BenchmarkFilters(b *testing.B) {
	path := "/site/structures/pages/section_1/page_12.json"
	for i := 0; i < b.N; i++ {
		_ = ProjectFileFilter(path) && NoTempFilter(path) && NoHiddenFilter(path)
	}
}
