package main

import (
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/rawbytedev/cellproj"
)

// Profiling harness: resolves and applies projections in a loop and writes a
// heap profile, while serving live profiles on localhost:6060.
func main() {
	go func() {
		log.Println(http.ListenAndServe("localhost:6060", nil))
	}()
	f, err := os.Create("mem.prof")
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	runtime.MemProfileRate = 1
	type Inner struct {
		Mod      [4]int8
		Integers [3]int16
		Float    cellproj.Tuple2[float32, float64]
	}
	type NewStruct struct {
		ID    uint64
		Inner Inner
	}
	c := cellproj.New(NewStruct{ID: 7})
	for i := 0; i < 10000; i++ {
		cellproj.ResetPlans()
		p := cellproj.MustPath[NewStruct, float64]("Inner.Float.1")
		p.Of(&c).Set(float64(i))
		mods := cellproj.Field(&c, func(s *NewStruct) *[4]int8 { return &s.Inner.Mod })
		elems := cellproj.MustElems[int8](mods)
		for j := range elems {
			elems[j].Set(int8(i + j))
		}
	}
	if err := pprof.WriteHeapProfile(f); err != nil {
		log.Fatal(err)
	}
	time.Sleep(5 * time.Minute)
}
