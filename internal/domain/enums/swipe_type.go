package enums

type SwipeType string

const (
	SwipeTypeKiss SwipeType = "kiss"
	SwipeTypeRug  SwipeType = "rug"
)

func (t SwipeType) Valid() bool {
	return t == SwipeTypeKiss || t == SwipeTypeRug
}
