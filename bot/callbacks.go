package bot

// Callback data values. Prefixed entries carry an id after the prefix.
const (
	cbHome      = "home"
	cbDashboard = "dashboard"

	cbLogin           = "login"
	cbRegisterStudent = "register_mhs"
	cbRegisterKantin  = "register_ktn"
	cbLogout          = "logout"
	cbLogoutYes       = "logout_yes"
	cbLogoutNo        = "logout_no"

	cbCatalog            = "catalog"
	cbCatalogSearch      = "cat_search"
	cbCatalogClear       = "cat_clear"
	cbTypeFilterPrefix   = "cat_type:"
	cbVendorFilterPrefix = "cat_kantin:"
	cbAddPrefix          = "add:"

	cbCart         = "cart"
	cbRemovePrefix = "rm:"
	cbCheckout     = "checkout"

	cbOrders           = "orders"
	cbKantinOrders     = "k_orders"
	cbOrderDonePrefix  = "k_done:"
	cbKantinMenu       = "k_menu"
	cbMenuAdd          = "k_menu_add"
	cbMenuTypePrefix   = "k_menu_type:"
	cbMenuSkipImage    = "k_menu_noimg"
	cbMenuEditPrefix   = "k_menu_edit:"
	cbMenuDeletePrefix = "k_menu_del:"

	cbProfile         = "profile"
	cbProfileComplete = "profile_complete"
	cbProfileLater    = "profile_later"
	cbProfileEdit     = "profile_edit"
	cbChangePassword  = "profile_pwd"
)

// Pending-input form kinds.
const (
	kindLogin           = "login"
	kindRegisterStudent = "reg_mhs"
	kindRegisterKantin  = "reg_ktn"
	kindCompleteStudent = "complete_mhs"
	kindCompleteKantin  = "complete_ktn"
	kindEditStudent     = "edit_mhs"
	kindEditKantin      = "edit_ktn"
	kindPassword        = "pwd"
	kindMenuAdd         = "menu_add"
	kindMenuEdit        = "menu_edit"
	kindSearch          = "search"
)

// Steps of the add-menu form.
const (
	menuAddStepName = iota
	menuAddStepDescription
	menuAddStepPrice
	menuAddStepType
	menuAddStepImage
)
