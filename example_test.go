package lazytables_test

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/nisimpson/lazytables"
)

// Example demonstrates lazy, cached reads
func Example() {
	ctx := context.Background()

	schema := lazytables.MustDefine(
		lazytables.Table("table_one"),
		lazytables.TableKey("table_two", "table-two.csv"),
	)

	read := func(ctx context.Context, key string) (string, error) {
		fmt.Printf("reading %s\n", key)
		return strings.ToUpper(key), nil
	}

	tables := lazytables.New(schema, read)

	one, _ := tables.Get(ctx, "table_one")
	one, _ = tables.Get(ctx, "table_one") // cached
	two, _ := tables.Get(ctx, "table_two")

	fmt.Println(one, two)

	// Output:
	// reading table_one
	// reading table-two.csv
	// TABLE_ONE TABLE-TWO.CSV
}

// Example_write demonstrates chained writes
func Example_write() {
	ctx := context.Background()
	store := map[string]int{}

	schema := lazytables.MustDefine(lazytables.Table("a"), lazytables.Table("b"), lazytables.Table("c"))

	read := func(ctx context.Context, key string) (int, error) {
		return store[key], nil
	}
	write := func(ctx context.Context, key string, value int, extra ...any) error {
		fmt.Printf("writing %s=%d\n", key, value)
		store[key] = value
		return nil
	}

	tables := lazytables.New(schema, read, lazytables.WithWriter(write))

	space, err := tables.Write().Put(ctx, "a", 1)
	if err != nil {
		log.Fatal(err)
	}
	space, err = space.Write().Table("b")(ctx, 2)
	if err != nil {
		log.Fatal(err)
	}
	_, err = space.Write().PutAll(ctx, lazytables.BatchOf(map[string]int{"c": 3}))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(tables.Cache())

	// Output:
	// writing a=1
	// writing b=2
	// writing c=3
	// map[a:1 b:2 c:3]
}

type Reports struct {
	Daily  string `table:"reports/daily.json"`
	Weekly string `table:"reports/weekly.json"`
}

// ExampleSchemaOf demonstrates declaring tables with a struct
func ExampleSchemaOf() {
	schema, err := lazytables.SchemaOf[Reports]()
	if err != nil {
		log.Fatal(err)
	}

	for _, name := range schema.Names() {
		key, _ := schema.Key(name)
		fmt.Printf("%s -> %s\n", name, key)
	}

	// Output:
	// Daily -> reports/daily.json
	// Weekly -> reports/weekly.json
}
