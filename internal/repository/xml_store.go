package repository

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"

	"github.com/avasilenko/vending-machine/internal/domain"
)

// XMLStore reads and writes stock snapshots in the vendingMachineStock
// XML document format:
//
//	<vendingMachineStock>
//	  <items><item name="Cola" price="1.25" stock="10"/></items>
//	  <coins><coin value="0.50" stock="20"/></coins>
//	</vendingMachineStock>
type XMLStore struct {
	path string
}

func NewXMLStore(path string) *XMLStore {
	return &XMLStore{path: path}
}

type stockDocument struct {
	XMLName xml.Name      `xml:"vendingMachineStock"`
	Items   []itemElement `xml:"items>item"`
	Coins   []coinElement `xml:"coins>coin"`
}

type itemElement struct {
	Name  string `xml:"name,attr"`
	Price string `xml:"price,attr"`
	Stock int    `xml:"stock,attr"`
}

type coinElement struct {
	Value string `xml:"value,attr"`
	Stock int    `xml:"stock,attr"`
}

func (s *XMLStore) Load(_ context.Context) (domain.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %v", domain.ErrMalformedStockSource, err)
	}

	var doc stockDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %v", domain.ErrMalformedStockSource, err)
	}

	snap := domain.Snapshot{}
	for _, el := range doc.Items {
		price, err := domain.ParsePence(el.Price)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("%w: item %q: %v", domain.ErrMalformedStockSource, el.Name, err)
		}
		if el.Name == "" || el.Stock < 0 {
			return domain.Snapshot{}, fmt.Errorf("%w: item %q", domain.ErrMalformedStockSource, el.Name)
		}
		snap.Items = append(snap.Items, domain.Item{Name: el.Name, Price: price, Stock: el.Stock})
	}
	for _, el := range doc.Coins {
		d, err := domain.ParseDenomination(el.Value)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("%w: coin %q", domain.ErrMalformedStockSource, el.Value)
		}
		if el.Stock < 0 {
			return domain.Snapshot{}, fmt.Errorf("%w: coin %q", domain.ErrMalformedStockSource, el.Value)
		}
		snap.Coins = append(snap.Coins, domain.CoinLot{Denomination: d, Count: el.Stock})
	}
	return snap, nil
}

func (s *XMLStore) Save(_ context.Context, snap domain.Snapshot) error {
	doc := stockDocument{}
	for _, item := range snap.Items {
		doc.Items = append(doc.Items, itemElement{
			Name:  item.Name,
			Price: item.Price.String(),
			Stock: item.Stock,
		})
	}
	for _, lot := range snap.Coins {
		doc.Coins = append(doc.Coins, coinElement{
			Value: lot.Denomination.String(),
			Stock: lot.Count,
		})
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal stock: %w", err)
	}

	if err := os.WriteFile(s.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write stock file: %w", err)
	}
	return nil
}
