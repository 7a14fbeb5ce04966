package repository

// Factory describes access to different domain repositories.
type Factory interface {
	Transactor
	Orders() OrderRepository
	Products() ProductRepository
	Carts() CartRepository
}
